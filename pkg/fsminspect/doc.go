// Package fsminspect serves a read-mostly HTTP view of a statemachine.Manager.
//
// Handler lists machines, returns detached snapshots and delivers events
// through Manager.Send, mapping routing failures to 404 and ambiguous
// transition tables to 409. It is a chi router and can be mounted anywhere:
//
//	r := chi.NewRouter()
//	r.Mount("/debug/fsm", fsminspect.Handler(mgr, fsminspect.WithLogger(log)))
//
// Each request gets a correlation id taken from the X-Request-ID header, or a
// fresh uuid when the header is missing or malformed. The id is echoed in the
// response and used as the id of the delivered event, so HTTP and machine log
// lines share it.
//
// Server wraps the handler in an http.Server bound to the lifetime of a
// context:
//
//	srv := fsminspect.NewServer(cfg.Inspect, fsminspect.Handler(mgr))
//	if err := srv.Run(ctx); err != nil {
//		return err
//	}
package fsminspect
