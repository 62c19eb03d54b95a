// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

// Package synergy implements a Synergy protocol client for Go.
//
// The client connects to a Synergy server, announces itself as a screen and
// turns the server's input stream into calls on a DeviceSink. It reassembles
// length-prefixed frames from a byte stream, answers the server the way it
// expects, and recovers from any transport failure, oversized frame or idle
// connection by reconnecting.
//
// # Basic Usage
//
//	transport := synergy.NewNetTransport("192.168.1.10:24800")
//
//	client, err := synergy.New(transport,
//		synergy.WithClientName("tablet"),
//		synergy.WithScreenSize(1920, 1080),
//		synergy.WithDeviceSink(mySink),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	client.Run(ctx)
//
// # Driving the Engine
//
// The engine is single-threaded. Every blocking operation goes through the
// Transport, and the host calls Update in a loop, either directly or through
// Run. A Runner owns that loop on its own goroutine and can be stopped from
// another one:
//
//	runner := synergy.NewRunner(client)
//	runner.Start()
//	defer runner.Stop()
//
// # Input Events
//
// Session state is updated before each DeviceSink callback, so a callback
// may inspect Client.Session. Embed NopDeviceSink to handle only some events:
//
//	type pointerSink struct {
//		synergy.NopDeviceSink
//	}
//
//	func (pointerSink) OnMouseMove(dx, dy int32) bool {
//		return injectRelativeMotion(dx, dy) == nil
//	}
//
// Returning false from OnMouseMove keeps the motion for the next delta.
//
// # Error Handling
//
// No error returned by Update is fatal. Errors describe what the engine
// recovered from and carry an ErrorCode:
//
//	if synergy.IsSynergyError(err, synergy.ErrTimeout) {
//		log.Printf("server went silent: %v", err)
//	}
package synergy
