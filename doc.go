// Package swarmclient is a client library for a remote generative-media
// server exposing HTTP and WebSocket APIs. It lets an application issue
// text-to-image generation requests, manage models, presets, backends, and
// users, and receive streaming progress and results, without dealing with
// session tokens, socket lifecycle, or wire payload shaping.
//
// # Architecture
//
//   - Client: entry point; owns the cached session token and the registry
//     of active streaming connections
//   - Send: one request/response exchange with automatic session injection
//     and one-shot recovery when the server rejects the token
//   - StreamCall / Stream: a long-lived WebSocket call exposed as an
//     ordered, cancellable sequence of typed updates
//   - Endpoint methods (GenerateText2Image, ListModels, AddNewBackend, ...):
//     typed wrappers that shape a payload and delegate to Send or StreamCall
//
// # Basic usage
//
//	client, err := swarmclient.New(swarmclient.Options{
//	    BaseURL: "http://localhost:7801",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	images, err := client.GenerateText2Image(ctx, &swarmclient.Text2ImageParams{
//	    Prompt: "a lighthouse at dusk",
//	    Width:  1024,
//	    Height: 1024,
//	})
//
// # Streaming
//
//	stream, err := client.GenerateText2ImageStream(ctx, params)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer stream.Close()
//
//	for update := range stream.Updates() {
//	    switch update.Kind {
//	    case swarmclient.UpdateProgress:
//	        fmt.Printf("%.0f%%\n", update.Progress.Overall*100)
//	    case swarmclient.UpdateImage:
//	        fmt.Println("image:", update.Image.Image)
//	    }
//	}
//	if err := stream.Err(); err != nil {
//	    log.Fatal(err)
//	}
//
// Cancelling the context passed to a stream ends it cleanly: the close
// handshake still runs and no error is reported. CloseAll gracefully shuts
// down every active stream at once.
//
// # Errors
//
// Callers see exactly one of four error kinds: *SessionError (the session
// could not be created, or kept being rejected), *APIError (a structured
// server error or failing HTTP status), *ProtocolError (the response could
// not be interpreted), and *StreamingError (connection or receive failure
// on a stream). Internal retries never leak through.
package swarmclient
