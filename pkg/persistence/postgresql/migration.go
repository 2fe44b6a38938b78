package postgresql

// migrations returns the schema migrations for the PostgreSQL persistence
// layer, keyed by version.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS deployed_workflows (
				id UUID PRIMARY KEY,
				name TEXT NOT NULL,
				slug TEXT NOT NULL UNIQUE,
				description TEXT NOT NULL DEFAULT '',
				owner TEXT NOT NULL DEFAULT '',
				graph JSONB NOT NULL,
				custom_nodes JSONB NOT NULL DEFAULT '[]'::jsonb,
				schema JSONB NOT NULL,
				api_key_hash TEXT NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				execution_count BIGINT NOT NULL DEFAULT 0,
				last_executed_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_deployed_workflows_owner
				ON deployed_workflows (owner);
			CREATE INDEX IF NOT EXISTS idx_deployed_workflows_slug
				ON deployed_workflows (slug);

			CREATE TABLE IF NOT EXISTS execution_records (
				id UUID PRIMARY KEY,
				workflow_id UUID NOT NULL REFERENCES deployed_workflows (id),
				inputs JSONB,
				outputs JSONB,
				status TEXT NOT NULL CHECK (status IN ('running', 'success', 'error', 'timeout')),
				error_message TEXT NOT NULL DEFAULT '',
				duration_ms BIGINT NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_execution_records_workflow
				ON execution_records (workflow_id, created_at DESC);
		`,
	}
}
