/*
Package tickstory orchestrates turns of scripted conversations ("tick stories").

A story is a hierarchical state machine plus a set of actions. Each user
utterance, already reduced to an intent and its entities, moves the
conversation along the machine; a solver then picks the concrete action to run
toward that objective, possibly running silent helper actions first. The
Engine keeps one TickSession per conversation and serialises turns on it.

# Usage

	b := dsl.New("weather").Initial("start")
	b.State("start").On("book", "book")
	b.Step("start").Answer("greet")
	b.Step("book").Answer("confirm").Needs("city").Final()
	b.Step("fetch_city").Handler("lookup_city").Produces("city").Silent()
	b.Answer("greet", "Where to?").Answer("confirm", "Booked {{.city}}.")

	handlers := registry.NewRegistry()
	handlers.Register("lookup_city", lookupCity)

	eng, err := tickstory.New(b.MustBuild(), tickstory.WithHandlers(handlers))
	if err != nil {
		log.Fatal(err)
	}

	res, err := eng.HandleTurn(ctx, "conversation-1", &domain.UserAction{IntentName: "book"})
	if err != nil {
		log.Fatal(err)
	}
	for _, text := range responder.Visible(res.Messages) {
		fmt.Println(text)
	}

Stories can also be written in YAML and loaded through a ports.StoryLoader,
see NewFromLoader.
*/
package tickstory
