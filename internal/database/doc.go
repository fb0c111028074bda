// Package database opens the local SQLite cache and owns its schema.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup, schema version, drop-and-recreate
//	├── videos/          # Catalog mirror: atomic replace, snapshot queries, row patches
//	└── transfers/       # Upload/download status records
//
// # Schema Evolution
//
// The video cache is disposable: it can be rebuilt from the remote catalog.
// The schema version lives in SQLite's user_version pragma. When it differs
// from SchemaVersion the video table is dropped and recreated. Transfer
// records are kept and only auto-migrated, since queued jobs rely on them to
// avoid running twice.
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./video-cache.db")
//	videosRepo := videos.NewRepository(db.DB)
//	transfersRepo := transfers.NewRepository(db.DB)
package database
