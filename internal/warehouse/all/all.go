// Package all registers every warehouse backend with the factory.
// Import for side effects from binaries that select the backend by config.
package all

import (
	_ "adetl/internal/warehouse/mssql"
	_ "adetl/internal/warehouse/postgres"
	_ "adetl/internal/warehouse/sqlite"
)
