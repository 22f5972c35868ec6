// Command xcall drives a single in-process pair of engines through the
// full send/receive/execute lifecycle and prints each event, the way
// cmd/geth-25-toolbox dials one RPC endpoint and runs a handful of
// subcommands against it. Connection delivery is synchronous (Mock calls
// straight into the peer's HandleMessage), so by the time SendCall returns
// the destination has already aggregated its request; this CLI still makes
// the separate execute_call/execute_rollback calls itself, exactly as a
// real relay operator would.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/holiman/uint256"

	"xcall-engine/codec"
	"xcall-engine/connection"
	"xcall-engine/dapp"
	"xcall-engine/engine"
	"xcall-engine/message"
	"xcall-engine/store"
)

func main() {
	originNID := flag.String("origin-nid", "0x1.icon", "origin network id")
	destNID := flag.String("dest-nid", "archway", "destination network id")
	sender := flag.String("sender", "A1", "origin sender account")
	destAccount := flag.String("to", "B1", "destination account")
	payload := flag.String("data", "hello", "call message payload")
	rollbackData := flag.String("rollback", "", "non-empty to send a CallMessageWithRollback")
	dappFail := flag.Bool("dapp-fail", false, "make the destination dapp report failure")
	dbPath := flag.String("db", "", "sqlite path for the origin store (empty = in-memory)")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	originStore, err := openStore(*dbPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	destStore := store.NewMemory()

	originDapp := dapp.NewMock()
	destDapp := dapp.NewMock()
	destDapp.Always(*destAccount, dapp.Result{Success: !*dappFail, Message: resultMessage(*dappFail)})

	connID := "C"
	originConn := connection.NewMock(connID, uint256.NewInt(10), uint256.NewInt(25), originStore)
	destConn := connection.NewMock(connID, uint256.NewInt(10), uint256.NewInt(25), destStore)

	originEng := engine.New(originStore, originDapp, map[string]connection.Connection{connID: originConn}, nil)
	destEng := engine.New(destStore, destDapp, map[string]connection.Connection{connID: destConn}, nil)

	originConn.Attach(*destNID, destEng)
	destConn.Attach(*originNID, originEng)

	for _, step := range []struct {
		eng *engine.Engine
		nid string
	}{{originEng, *originNID}, {destEng, *destNID}} {
		if err := step.eng.Initialize("admin", step.nid); err != nil {
			log.Fatalf("initialize %s: %v", step.nid, err)
		}
	}
	if err := originEng.SetDefaultConnection("admin", *destNID, connID); err != nil {
		log.Fatalf("set default connection: %v", err)
	}
	if err := destEng.SetDefaultConnection("admin", *originNID, connID); err != nil {
		log.Fatalf("set default connection: %v", err)
	}

	originEvents := make(chan engine.Event, 16)
	destEvents := make(chan engine.Event, 16)
	originEng.SubscribeEvents(originEvents)
	destEng.SubscribeEvents(destEvents)

	var msg message.AnyMessage
	if *rollbackData != "" {
		msg = message.CallMessageWithRollback{Data: []byte(*payload), Rollback: []byte(*rollbackData)}
	} else {
		msg = message.CallMessage{Data: []byte(*payload)}
	}
	env, err := message.NewEnvelope(msg, nil, nil)
	if err != nil {
		log.Fatalf("build envelope: %v", err)
	}

	sn, err := originEng.SendCall(ctx, *sender, *rollbackData != "", env, codec.NewNetworkAddress(*destNID, *destAccount))
	if err != nil {
		log.Fatalf("send_call: %v", err)
	}
	fmt.Printf("sent sn=%d\n", sn)

	// SendCall's synchronous delivery already ran the destination's
	// aggregation; pull the CallMessage event it emitted to learn req_id
	// and the raw data execute_call needs.
	for _, ev := range printAndCollect(destEvents) {
		if ev.Kind == engine.KindCallMessage {
			if err := destEng.ExecuteCall(ctx, ev.CallMessage.ReqID, ev.CallMessage.Data); err != nil {
				log.Fatalf("execute_call: %v", err)
			}
		}
	}
	// ExecuteCall may have sent a CSMessageResult back to the origin
	// (rollback-capable calls only); print whatever that produced there,
	// then on the destination side, print CallExecuted/any reply proxy.
	for _, ev := range printAndCollect(originEvents) {
		if ev.Kind == engine.KindRollbackMessage {
			if err := originEng.ExecuteRollback(ctx, ev.RollbackMessage.SN); err != nil {
				log.Fatalf("execute_rollback: %v", err)
			}
		}
	}
	printAndCollect(destEvents)
	printAndCollect(originEvents)
}

func resultMessage(fail bool) string {
	if fail {
		return "dapp declined"
	}
	return "ok"
}

func openStore(path string) (store.Store, error) {
	if path == "" {
		return store.NewMemory(), nil
	}
	return store.OpenSQLite(path)
}

// printAndCollect prints and returns every event currently buffered on ch,
// without blocking past an empty channel. Good enough for a single-shot
// demo where every hop is a synchronous in-process call.
func printAndCollect(ch chan engine.Event) []engine.Event {
	var out []engine.Event
	for {
		select {
		case ev := <-ch:
			printEvent(ev)
			out = append(out, ev)
		default:
			return out
		}
	}
}

func printEvent(ev engine.Event) {
	switch ev.Kind {
	case engine.KindCallMessageSent:
		fmt.Printf("CallMessageSent from=%s to=%s sn=%d\n", ev.CallMessageSent.From, ev.CallMessageSent.To, ev.CallMessageSent.SN)
	case engine.KindCallMessage:
		fmt.Printf("CallMessage from=%s to=%s sn=%d req_id=%d data=%q\n", ev.CallMessage.From, ev.CallMessage.To, ev.CallMessage.SN, ev.CallMessage.ReqID, ev.CallMessage.Data)
	case engine.KindCallExecuted:
		fmt.Printf("CallExecuted req_id=%d success=%v message=%q\n", ev.CallExecuted.ReqID, ev.CallExecuted.Success, ev.CallExecuted.Message)
	case engine.KindResponseMessage:
		fmt.Printf("ResponseMessage sn=%d success=%v\n", ev.ResponseMessage.SN, ev.ResponseMessage.Success)
	case engine.KindRollbackMessage:
		fmt.Printf("RollbackMessage sn=%d\n", ev.RollbackMessage.SN)
	case engine.KindRollbackExecuted:
		fmt.Printf("RollbackExecuted sn=%d\n", ev.RollbackExecuted.SN)
	}
}
