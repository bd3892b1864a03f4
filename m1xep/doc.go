// Package m1xep connects to a panel through its M1XEP Ethernet interface.
//
// A Connection dials the panel over TCP, or TLS in secure mode, performs the login handshake,
// feeds every received chunk into a dispatch.Dispatcher and writes outbound command frames.
// Requests that expect an answer are matched to the next message of the response type code
// by a Correlator.
//
// Example Usage:
//
//	cfg, err := m1xep.NewConnectionConfig("192.168.1.20", 0,
//	    m1xep.WithSecure(true),
//	    m1xep.WithCredentials("user", "secret"),
//	)
//	if err != nil {
//	    // handle error
//	}
//
//	conn, err := m1xep.NewConnection(ctx, cfg)
//	if err != nil {
//	    // handle error
//	}
//
//	conn.Subscribe(dispatch.Wildcard, func(msg message.Message) {
//	    fmt.Println(msg.TypeCode())
//	})
//
//	if err := conn.Open(ctx); err != nil {
//	    // handle error
//	}
//	defer conn.Close()
//
//	report, err := conn.RequestZoneStatus(ctx)
//
// Requests are correlated by type code only. Two concurrent requests with the same response
// type code are both satisfied by the first matching message, so callers must serialize
// requests of the same kind.
package m1xep
