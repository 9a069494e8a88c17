// Command chess-client is a line-oriented terminal front end for the
// session client, mainly useful for exercising a relay by hand.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/d5h/chess/session"
)

const usage = `commands:
  create                      open a new session
  join <id>                   join an existing session
  move <sr> <sc> <dr> <dc>    send a move
  rule <name> on|off          toggle a movement rule
  close                       leave the current session
  quit`

func main() {
	server := "localhost:58597"
	if len(os.Args) > 1 {
		server = os.Args[1]
	}

	client := session.New(server, session.Handlers{
		OnSessionCreated: func(id string) {
			fmt.Printf("session created, share this id: %s\n", id)
		},
		OnPaired: func(c session.Color) {
			fmt.Printf("opponent joined, you play %s\n", c)
		},
		OnOpponentMove: func(m session.Move) {
			fmt.Printf("opponent moved (%d,%d) -> (%d,%d)\n", m.SrcRow, m.SrcCol, m.DstRow, m.DstCol)
		},
		OnRulesUpdate: func(rs session.RuleSet) {
			for name, on := range rs {
				fmt.Printf("rule %s: %v\n", name, on)
			}
		},
		OnClosed: func(err error) {
			if err != nil {
				fmt.Printf("connection lost: %v\n", err)
			}
		},
	})
	defer client.Close()

	fmt.Println(usage)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "create":
			if err := client.Create(context.Background()); err != nil {
				log.Printf("[Client] create: %v", err)
			}
		case "join":
			if len(fields) != 2 {
				fmt.Println("usage: join <id>")
				continue
			}
			if err := client.Join(context.Background(), fields[1]); err != nil {
				log.Printf("[Client] join: %v", err)
			}
		case "move":
			if len(fields) != 5 {
				fmt.Println("usage: move <sr> <sc> <dr> <dc>")
				continue
			}
			coords := make([]int, 4)
			ok := true
			for i, f := range fields[1:] {
				n, err := strconv.Atoi(f)
				if err != nil {
					fmt.Printf("bad coordinate %q\n", f)
					ok = false
					break
				}
				coords[i] = n
			}
			if ok {
				client.SendMove(coords[0], coords[1], coords[2], coords[3])
			}
		case "rule":
			if len(fields) != 3 || (fields[2] != "on" && fields[2] != "off") {
				fmt.Println("usage: rule <name> on|off")
				continue
			}
			client.SendRules(session.RuleSet{fields[1]: fields[2] == "on"})
		case "close":
			client.Close()
		case "quit":
			return
		default:
			fmt.Println(usage)
		}
	}
}
