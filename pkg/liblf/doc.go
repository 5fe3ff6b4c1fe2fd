//
// liblf is a client that interacts with the lost-and-found API and its identity provider.
//

// Create clients
//
//	identity := liblf.NewDefaultIdentity("api-key")
//
//	client, err := liblf.NewDefaultClient("https://lostfound.nas.lan")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Authenticate
//
//	token, err := identity.SignIn(ctx, "george.abitbol@nas.lan", "Password42")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := client.Login(ctx, token.IDToken)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Every authenticated call asks the TokenSource for a bearer token.
//	client.SetTokenSource(liblf.StaticToken(token.IDToken))
//
// Get all items
//
//	items, err := client.Items(ctx) // No server-side filtering, everything is returned.
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, item := range items {
//		fmt.Println(item.PostType, item.Title, item.Date.Format("2006-01-02"))
//	}
//
// Report a found item
//
//	item, err := client.CreateItem(ctx, liblf.ItemReport{
//		PostType:     liblf.PostTypeFound,
//		Title:        "Car keys",
//		Description:  "Keychain with a red bottle opener",
//		Category:     "Keys",
//		Location:     "Central station",
//		Date:         liblf.NewDate(time.Now()),
//		Thumbnail:    "https://i.nas.lan/keys.jpg",
//		ContactName:  profile.Name,
//		ContactEmail: profile.Email,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Errors returned by the backend carry the HTTP status and the server message.
//
//	if liblf.IsNotFound(err) {
//		fmt.Println("gone:", liblf.Message(err))
//	}
package liblf
