// Command xcall-relay fans a batch of independent cross-chain calls across
// a worker pool, in the spirit of cmd/geth-16-concurrency's
// jobs-channel/sync.WaitGroup idiom: each worker pulls one call off a
// shared channel, drives it through send -> (synchronous mock delivery) ->
// execute_call, and reports the outcome.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"xcall-engine/codec"
	"xcall-engine/connection"
	"xcall-engine/dapp"
	"xcall-engine/engine"
	"xcall-engine/message"
	"xcall-engine/store"
)

type job struct {
	id   int
	data string
}

type outcome struct {
	job     job
	sn      uint64
	reqID   uint64
	success bool
	message string
	err     error
}

func main() {
	originNID := flag.String("origin-nid", "0x1.icon", "origin network id")
	destNID := flag.String("dest-nid", "archway", "destination network id")
	sender := flag.String("sender", "A1", "origin sender account")
	destAccount := flag.String("to", "B1", "destination account")
	count := flag.Int("count", 8, "number of independent calls to relay")
	workers := flag.Int("workers", 3, "worker goroutines")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	originStore := store.NewMemory()
	destStore := store.NewMemory()

	originDapp := dapp.NewMock()
	destDapp := dapp.NewMock()
	destDapp.Always(*destAccount, dapp.Result{Success: true, Message: "ok"})

	connID := "C"
	originConn := connection.NewMock(connID, uint256.NewInt(10), uint256.NewInt(25), originStore)
	destConn := connection.NewMock(connID, uint256.NewInt(10), uint256.NewInt(25), destStore)

	originEng := engine.New(originStore, originDapp, map[string]connection.Connection{connID: originConn}, nil)
	destEng := engine.New(destStore, destDapp, map[string]connection.Connection{connID: destConn}, nil)

	originConn.Attach(*destNID, destEng)
	destConn.Attach(*originNID, originEng)

	if err := originEng.Initialize("admin", *originNID); err != nil {
		log.Fatalf("initialize origin: %v", err)
	}
	if err := destEng.Initialize("admin", *destNID); err != nil {
		log.Fatalf("initialize dest: %v", err)
	}
	if err := originEng.SetDefaultConnection("admin", *destNID, connID); err != nil {
		log.Fatalf("set default connection: %v", err)
	}
	if err := destEng.SetDefaultConnection("admin", *originNID, connID); err != nil {
		log.Fatalf("set default connection: %v", err)
	}

	destEvents := make(chan engine.Event, *count*2)
	destEng.SubscribeEvents(destEvents)

	jobs := make(chan job)
	results := make(chan outcome, *count)
	wg := sync.WaitGroup{}

	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := range jobs {
				results <- relayOne(ctx, originEng, destEng, destEvents, *sender, *destNID, *destAccount, j)
			}
			_ = id
		}(w)
	}

	go func() {
		for i := 0; i < *count; i++ {
			jobs <- job{id: i, data: fmt.Sprintf("payload-%d", i)}
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for out := range results {
		if out.err != nil {
			fmt.Printf("job %d: error: %v\n", out.job.id, out.err)
			continue
		}
		fmt.Printf("job %d: sn=%d req_id=%d success=%v message=%q\n", out.job.id, out.sn, out.reqID, out.success, out.message)
	}
}

// relayOne drives a single call end to end. Mock delivery is synchronous
// and each engine holds its own mutex per call, so concurrent workers can
// share one origin/destination engine pair safely; the destination's event
// feed is shared too, so this reads events off it by matching the
// CallMessage carrying this job's data rather than assuming ordering.
func relayOne(ctx context.Context, origin, dest *engine.Engine, destEvents chan engine.Event, sender, destNID, destAccount string, j job) outcome {
	env, err := message.NewEnvelope(message.CallMessagePersisted{Data: []byte(j.data)}, nil, nil)
	if err != nil {
		return outcome{job: j, err: err}
	}
	sn, err := origin.SendCall(ctx, sender, false, env, codec.NewNetworkAddress(destNID, destAccount))
	if err != nil {
		return outcome{job: j, err: err}
	}

	reqID, raw, err := findCallMessage(destEvents, j.data)
	if err != nil {
		return outcome{job: j, sn: sn, err: err}
	}
	if err := dest.ExecuteCall(ctx, reqID, raw); err != nil {
		return outcome{job: j, sn: sn, reqID: reqID, err: err}
	}
	return outcome{job: j, sn: sn, reqID: reqID, success: true, message: "executed"}
}

// findCallMessage waits briefly for a CallMessage event carrying data on
// ch, since several workers share one destination event feed.
func findCallMessage(ch chan engine.Event, data string) (uint64, []byte, error) {
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Kind != engine.KindCallMessage {
				continue
			}
			if string(ev.CallMessage.Data) == data {
				return ev.CallMessage.ReqID, ev.CallMessage.Data, nil
			}
			// Another worker's call: put it back for that worker to find.
			ch <- ev
		case <-deadline:
			return 0, nil, fmt.Errorf("no CallMessage observed for %q", data)
		}
	}
}
