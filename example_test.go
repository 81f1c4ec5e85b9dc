package tickstory_test

import (
	"context"
	"fmt"

	"github.com/aretw0/tickstory"
	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/dsl"
	"github.com/aretw0/tickstory/pkg/registry"
)

func Example() {
	b := dsl.New("greeter").Initial("hello")
	b.State("hello").On("bye", "goodbye")
	b.Step("hello").Answer("hi")
	b.Step("goodbye").Answer("bye").Final()
	b.Context("name", "person")
	b.Answer("hi", "Hi there.").Answer("bye", "Goodbye {{.name}}.")

	eng, err := tickstory.New(b.MustBuild())
	if err != nil {
		panic(err)
	}

	res, err := eng.HandleTurn(context.Background(), "c1", &domain.UserAction{
		IntentName: "bye",
		Entities:   map[string]string{"person": "Ana"},
	})
	if err != nil {
		panic(err)
	}

	for _, m := range res.Messages {
		fmt.Println(m.Text)
	}
	fmt.Println(res.Session.CurrentState, res.Final)
	// Output:
	// Goodbye Ana.
	// goodbye true
}

// A silent handler fills the missing context, then the objective runs in the same turn.
func ExampleEngine_HandleTurn_silentChain() {
	b := dsl.New("shop").Initial("start")
	b.State("start").On("buy", "checkout")
	b.Step("start")
	b.Step("checkout").Answer("total").Needs("price").Final()
	b.Step("price_lookup").Handler("price").Produces("price").Silent()
	b.Context("price", "")
	b.Answer("total", "That is {{.price}}.")

	handlers := registry.NewRegistry()
	handlers.Register("price", func(context.Context, domain.Contexts) (domain.Contexts, error) {
		return domain.Contexts{"price": domain.Value("$3")}, nil
	})

	eng, err := tickstory.New(b.MustBuild(), tickstory.WithHandlers(handlers))
	if err != nil {
		panic(err)
	}

	res, err := eng.HandleTurn(context.Background(), "c1", &domain.UserAction{IntentName: "buy"})
	if err != nil {
		panic(err)
	}

	for _, step := range res.Steps {
		fmt.Printf("%s -> %s (silent=%v)\n", step.Primary, step.Secondary, step.Silent)
	}
	for _, m := range res.Messages {
		fmt.Println(m.Text)
	}
	// Output:
	// checkout -> price_lookup (silent=true)
	// checkout -> checkout (silent=false)
	// That is $3.
}
