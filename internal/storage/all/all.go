// Package all registers every storage backend. Commands blank-import it
// so the configured kind is always available.
package all

import (
	_ "tabular/internal/storage/mssql"
	_ "tabular/internal/storage/mysql"
	_ "tabular/internal/storage/postgres"
	_ "tabular/internal/storage/sqlite"
)
