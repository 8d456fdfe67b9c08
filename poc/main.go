package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"netrunner/internal/catalog"
	"netrunner/internal/engine"
)

func main() {
	seedFlag := flag.Int64("seed", 0, "seed for rng")
	dataFlag := flag.String("data", "data", "catalog directory")
	flag.Parse()

	seed := *seedFlag
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	cat, err := catalog.Load(*dataFlag)
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}
	s := engine.NewSession(cat, engine.WithRand(engine.NewRand(seed)))
	defer s.Close()

	repl(s, os.Stdin, os.Stdout)
}

func repl(s *engine.Session, in io.Reader, out io.Writer) {
	reader := bufio.NewReader(in)
	lastID := ""
	for {
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if strings.ToLower(fields[0]) == "quit" {
			return
		}
		run(s, out, fields)

		notes := unseen(s.Notifications(0), lastID)
		for _, n := range notes {
			fmt.Fprintf(out, "  [%s] %s\n", n.Kind, n.Text)
			lastID = n.ID
		}
	}
}

// unseen returns the entries after lastID. The log is a bounded ring, so
// when lastID has rotated out everything is new.
func unseen(notes []engine.Notification, lastID string) []engine.Notification {
	if lastID == "" {
		return notes
	}
	for i := len(notes) - 1; i >= 0; i-- {
		if notes[i].ID == lastID {
			return notes[i+1:]
		}
	}
	return notes
}

func run(s *engine.Session, out io.Writer, fields []string) {
	ctx := context.Background()
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch {
	case cmd == "scan" && len(args) == 2:
		res, err := s.Scan(ctx, args[0], args[1])
		if report(out, err) {
			fmt.Fprintf(out, "%s/%s: %.1f%% (hardened +%d, trace armed=%v)\n", res.Target, res.Server, res.Chance*100, res.Hardened, res.Trace.Armed)
		}
	case cmd == "hack" && len(args) == 2:
		res, err := s.Hack(ctx, args[0], args[1])
		if report(out, err) {
			if res.Success {
				fmt.Fprintf(out, "success: +%.2f credits, +%.1f rep, +%d xp\n", res.Credits, res.Reputation, res.XP)
			} else {
				fmt.Fprintf(out, "failure: +%.1f heat, -%.2f credits\n", res.Heat, res.CreditLoss)
			}
		}
	case cmd == "buy" && len(args) == 1:
		report(out, s.BuyItem(args[0]))
	case cmd == "learn" && len(args) == 1:
		report(out, s.LearnProgram(args[0]))
	case cmd == "equip" && len(args) == 1:
		report(out, s.EquipProgram(args[0]))
	case cmd == "unequip" && len(args) == 1:
		report(out, s.UnequipProgram(args[0]))
	case cmd == "spend" && len(args) == 1:
		report(out, s.SpendSkillPoint(args[0]))
	case cmd == "unlock" && len(args) == 1:
		report(out, s.UnlockUpgrade(args[0]))
	case cmd == "research" && len(args) == 1:
		report(out, s.ResearchUpgrade(args[0]))
	case cmd == "accept" && len(args) == 1:
		report(out, s.AcceptMissionChain(args[0]))
	case cmd == "sell":
		var err error
		if len(args) == 0 {
			_, err = s.SellAllLoot()
		} else {
			qty := 0
			if len(args) > 1 {
				qty, _ = strconv.Atoi(args[1])
			}
			_, err = s.SellLoot(args[0], qty)
		}
		report(out, err)
	case cmd == "tick":
		income := s.AccruePassiveIncome()
		cooled := s.DecayHeat()
		fmt.Fprintf(out, "income +%.2f, heat -%.2f\n", income, cooled)
		if e, ok := s.MaybeSpawnSecurityEvent(); ok {
			fmt.Fprintf(out, "event %s until %s\n", e.Type, e.Ends.Format(time.Kitchen))
		}
	case cmd == "targets":
		renderTargets(s, out)
	case cmd == "status":
		renderStatus(s, out)
	default:
		fmt.Fprintln(out, "Unknown command. Available: scan, hack, buy, learn, equip, unequip, spend, unlock, research, accept, sell, tick, targets, status, quit")
	}
}

func report(out io.Writer, err error) bool {
	if err == nil {
		return true
	}
	if reason := engine.RejectionReason(err); reason != "" {
		fmt.Fprintf(out, "rejected: %s\n", reason)
		return false
	}
	fmt.Fprintf(out, "error: %v\n", err)
	return false
}

func renderTargets(s *engine.Session, out io.Writer) {
	for _, t := range s.Targets() {
		fmt.Fprintf(out, "%s (%s)\n", t.ID, t.Kind)
		for _, srv := range t.Servers {
			known := "?"
			if srv.Discovered != nil {
				known = fmt.Sprintf("%.1f%%", *srv.Discovered*100)
			}
			fmt.Fprintf(out, "  %-14s L%d ice=%v hardening=%d chance=%s\n", srv.ID, srv.Level, srv.ICE, srv.Hardening, known)
		}
	}
}

func renderStatus(s *engine.Session, out io.Writer) {
	st := s.State()
	fmt.Fprintf(out, "Credits: %.2f | Rep: %.1f | Heat: %.1f | XP: %d | SP: %d | RP: %.1f | hacking=%v\n",
		st.Credits, st.Reputation, st.Heat, st.XP, st.SkillPoints, st.ResearchPoints, s.HackEnabled())
	skills := make([]string, 0, len(st.Skills))
	for id, v := range st.Skills {
		skills = append(skills, fmt.Sprintf("%s=%.2f", id, v))
	}
	sort.Strings(skills)
	fmt.Fprintf(out, "Skills: %s\n", strings.Join(skills, " "))
	fmt.Fprintf(out, "Programs: %v\n", st.ActivePrograms)
	for _, e := range s.ActiveEvents() {
		fmt.Fprintf(out, "Event: %s %s until %s\n", e.Type, e.Corp, e.Ends.Format(time.Kitchen))
	}
}
