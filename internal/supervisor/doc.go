// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

/*
Package supervisor provides process supervision for Lodestar using suture v4.

The supervisor tree organizes services into three layers for failure isolation:

	RootSupervisor ("lodestar")
	├── DataSupervisor ("data-layer")
	│   ├── CollectionMonitor
	│   └── ReindexService (if REINDEX_INTERVAL or REINDEX_ON_STARTUP)
	├── WorkerSupervisor ("worker-layer")
	│   └── vectorizer.Worker
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's backoff. Supervisor events are
logged through sutureslog into the zerolog-backed slog handler from the
logging package.

Usage in main.go:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewCollectionMonitor(engine, monitorCfg, logger))
	tree.AddWorkerService(worker)
	tree.AddAPIService(services.NewHTTPServerService(server, services.HTTPServerConfig{Addr: cfg.Addr()}, logger))

	errCh := tree.ServeBackground(ctx)
*/
package supervisor
