// Package thalex is a client for the Thalex websocket API.
//
// The client has a method for every websocket endpoint and a Receive method that
// returns the messages sent by the exchange one by one, in arrival order.
// Endpoint methods only send the request; the response arrives through Receive
// and carries the id set with WithID:
//
//	client := thalex.NewClient(thalex.Test)
//	if err := client.Connect(ctx); err != nil {
//		return err
//	}
//	defer client.Disconnect()
//
//	key, err := thalex.LoadPrivateKey("private.pem")
//	if err != nil {
//		return err
//	}
//	_ = client.Login(ctx, keyID, key, "", thalex.WithID(1))
//	_ = client.PublicSubscribe(ctx, []string{thalex.TickerChannel("BTC-PERPETUAL", thalex.Delay1000ms)})
//
//	for {
//		msg, err := client.ReceiveMessage(ctx)
//		if err != nil {
//			return err
//		}
//		switch msg.Kind() {
//		case thalex.KindNotification:
//			// msg.ChannelName, msg.Notification
//		case thalex.KindResult:
//			// msg.ID, msg.Result
//		case thalex.KindError:
//			// msg.Error
//		}
//	}
package thalex
