//go:build integration

// Package db integration tests run against a throwaway SurrealDB container.
package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/moderatehq/turnstile/internal/models"
)

var testDB *Client
var testContainer testcontainers.Container

// TestMain sets up and tears down the SurrealDB container for all tests.
func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testDB, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testDB.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = testContainer.Terminate(ctx)
	os.Exit(code)
}

func testTurn() models.Turn {
	return models.Turn{
		CompanyID:   "acme",
		UserID:      "u-1",
		ChatBlockID: "cb-1",
		Inbound:     models.Message{Role: models.RoleUser, Content: "hello there"},
	}
}

func TestPersistInboundAndGetMessage(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.WipeData(ctx))

	cat := models.Categorization{Category: "greeting", Complexity: models.ComplexityLow, Topics: []string{"smalltalk"}}
	id, err := testDB.PersistInbound(ctx, testTurn(), cat)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	stored, err := testDB.GetMessage(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, stored.Role)
	assert.Equal(t, "hello there", stored.Content)
	assert.Equal(t, "greeting", stored.Category)
	assert.Equal(t, []string{"smalltalk"}, stored.Topics)
}

func TestFetchRulesOrderAndSnapshot(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.WipeData(ctx))

	first, err := testDB.SaveRule(ctx, models.BlockRule{CompanyID: "acme", Matcher: "foo", Substitution: "bar"})
	require.NoError(t, err)
	second, err := testDB.SaveRule(ctx, models.BlockRule{CompanyID: "acme", Matcher: "bar", Substitution: "baz"})
	require.NoError(t, err)

	// Another tenant's rules must not leak into the snapshot.
	_, err = testDB.SaveRule(ctx, models.BlockRule{CompanyID: "globex", Matcher: "foo", Substitution: "qux"})
	require.NoError(t, err)

	rules, err := testDB.FetchRules(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, first, rules[0].ID)
	assert.Equal(t, second, rules[1].ID)
	assert.Equal(t, "foo", rules[0].Matcher)
	assert.Equal(t, "bar", rules[1].Matcher)
}

func TestFetchRulesEmptyCompany(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.WipeData(ctx))

	rules, err := testDB.FetchRules(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestFetchPersonaOrdering(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.WipeData(ctx))

	require.NoError(t, testDB.SavePersonaAttribute(ctx, "cb-1", models.PersonaAttribute{Name: "humor", Level: 2}))
	require.NoError(t, testDB.SavePersonaAttribute(ctx, "cb-1", models.PersonaAttribute{Name: "brevity", Level: 1}))

	attrs, err := testDB.FetchPersona(ctx, "cb-1")
	require.NoError(t, err)
	require.Len(t, attrs, 2)
	assert.Equal(t, "brevity", attrs[0].Name)
	assert.Equal(t, "humor", attrs[1].Name)
}

func TestFetchHistoryChronological(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.WipeData(ctx))

	turn := testTurn()
	cat := models.Categorization{Category: "greeting", Complexity: models.ComplexityLow}

	_, err := testDB.PersistInbound(ctx, turn, cat)
	require.NoError(t, err)
	require.NoError(t, testDB.PersistOutbound(ctx, turn, "hi, how can I help?", cat))

	history, err := testDB.FetchHistory(ctx, "cb-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.RoleUser, history[0].Role)
	assert.Equal(t, models.RoleAssistant, history[1].Role)
	assert.Equal(t, "hi, how can I help?", history[1].Content)
}
