// Command demo exercises the store and middleware pipeline end to end with
// no network: it runs the fetchThing async thunk for two known things and
// one unknown id, printing the root state as JSON after every state change.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"fluxstate/di"
	"fluxstate/thunk"
)

func main() {
	container, err := di.NewContainer("")
	if err != nil {
		log.Fatalf("failed to build container: %v", err)
	}
	defer func() {
		if err := container.Shutdown(context.Background()); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	unsubscribe, err := container.Store.Subscribe(func() {
		state, err := container.Store.GetState()
		if err != nil {
			return
		}
		printState(state)
	})
	if err != nil {
		log.Fatalf("failed to subscribe: %v", err)
	}
	defer unsubscribe()

	fmt.Println("fetching thing 1...")
	handle := thunk.Start(container.Store.Dispatch, context.Background(), container.FetchThing, "1")
	<-handle.Settled

	fmt.Println("fetching thing 2...")
	handle = thunk.Start(container.Store.Dispatch, context.Background(), container.FetchThing, "2")
	<-handle.Settled

	fmt.Println("fetching unknown thing...")
	handle = thunk.Start(container.Store.Dispatch, context.Background(), container.FetchThing, "missing")
	<-handle.Settled
}

func printState(state di.RootState) {
	raw, err := json.Marshal(state)
	if err != nil {
		fmt.Println("state: <unprintable>", err)
		return
	}
	fmt.Println("state:", string(raw))
}
