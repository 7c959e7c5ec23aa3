package db

// SchemaSQL contains the database schema initialization SQL.
const SchemaSQL = `
    -- ==========================================================================
    -- MESSAGE TABLE
    -- ==========================================================================
    -- One row per persisted message, inbound or outbound. Content is stored
    -- as received; rule substitution never rewrites persisted rows.
    DEFINE TABLE IF NOT EXISTS message SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS chat_block_id ON message TYPE string;
    DEFINE FIELD IF NOT EXISTS company_id ON message TYPE string;
    DEFINE FIELD IF NOT EXISTS user_id ON message TYPE string;
    DEFINE FIELD IF NOT EXISTS role ON message TYPE string ASSERT $value IN ["user", "assistant", "system"];
    DEFINE FIELD IF NOT EXISTS content ON message TYPE string;
    DEFINE FIELD IF NOT EXISTS category ON message TYPE string;
    DEFINE FIELD IF NOT EXISTS complexity ON message TYPE string;
    DEFINE FIELD IF NOT EXISTS topics ON message TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS created ON message TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS message_chat_block ON message FIELDS chat_block_id;
    DEFINE INDEX IF NOT EXISTS message_company ON message FIELDS company_id;

    -- ==========================================================================
    -- BLOCK_RULE TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS block_rule SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS company_id ON block_rule TYPE string;
    DEFINE FIELD IF NOT EXISTS matcher ON block_rule TYPE string;
    DEFINE FIELD IF NOT EXISTS substitution ON block_rule TYPE string;
    DEFINE FIELD IF NOT EXISTS created ON block_rule TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS block_rule_company ON block_rule FIELDS company_id;

    -- ==========================================================================
    -- PERSONA_ATTRIBUTE TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS persona_attribute SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS chat_block_id ON persona_attribute TYPE string;
    DEFINE FIELD IF NOT EXISTS name ON persona_attribute TYPE string;
    DEFINE FIELD IF NOT EXISTS level ON persona_attribute TYPE int ASSERT $value IN [0, 1, 2];

    DEFINE INDEX IF NOT EXISTS persona_attribute_unique ON persona_attribute FIELDS chat_block_id, name UNIQUE;
`
