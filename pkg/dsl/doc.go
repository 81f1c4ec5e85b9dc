/*
Package dsl provides a fluent Go builder for tick stories.

It is an alternative to YAML files when stories are generated in code, embedded
in tests, or simply easier to read next to their handlers.

Example usage:

	b := dsl.New("weather")
	b.Initial("start")

	b.State("start").On("book", "book")
	b.Step("start").Answer("greet")
	b.Step("book").Answer("confirm").Needs("city").Final()
	b.Step("fetch_city").Handler("lookup_city").Produces("city").Silent()

	b.Context("city", "location")
	b.Answer("greet", "Where to?")
	b.Answer("confirm", "Booked {{.city}}.")

	cfg, err := b.Build()
*/
package dsl
