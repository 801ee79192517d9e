// Command monedero is the consumer-side companion to the API server. It picks
// a backend from configuration (the hosted API, or a local SQLite file in
// demo/offline mode), restores the last selected context, and works inside
// that context from then on.
package main

import (
	"context"
	"fmt"
	"os"

	"monedero/internal/authority"
	"monedero/internal/config"
	"monedero/internal/logger"
	"monedero/internal/money"
	"monedero/internal/session"
)

const recentTransactionLimit = 10

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(os.Args[1:]); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	backend, err := authority.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize backend: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Get().Warnf("backend close error: %v", err)
		}
	}()

	ctx := context.Background()
	selector := session.NewSelector(session.NewStore(cfg.SessionFile), backend)

	// The persisted selection is validated before any scoped fetch; a group
	// the user no longer belongs to falls back to personal.
	active, err := selector.Restore(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore context: %w", err)
	}

	command := "status"
	if len(args) > 0 {
		command = args[0]
	}

	switch command {
	case "status":
		return printStatus(ctx, backend, active)

	case "groups":
		return printGroups(ctx, selector)

	case "use":
		if len(args) < 2 {
			return fmt.Errorf("usage: monedero use <personal|group-id>")
		}
		return switchContext(ctx, selector, args[1])

	default:
		return fmt.Errorf("unknown command: %s (use status, groups, or use)", command)
	}
}

// printStatus shows the pockets and recent transactions of the active context.
func printStatus(ctx context.Context, backend authority.Authority, active session.Context) error {
	groupID := ""
	if active.IsPersonal() {
		fmt.Println("Context: personal")
	} else {
		groupID = active.GroupID
		fmt.Printf("Context: group %s (%s)\n", active.GroupName, active.GroupID)
	}

	pockets, err := backend.Pockets(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to fetch pockets: %w", err)
	}
	var total int64
	fmt.Println("\nPockets:")
	for _, pocket := range pockets {
		marker := ""
		if pocket.IsGeneral {
			marker = " (general)"
		}
		fmt.Printf("  %-24s %s%s\n", pocket.Name, money.Format(pocket.Balance), marker)
		total += pocket.Balance
	}
	fmt.Printf("  %-24s %s\n", "Total", money.Format(total))

	transactions, err := backend.Transactions(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to fetch transactions: %w", err)
	}
	if len(transactions) > recentTransactionLimit {
		transactions = transactions[:recentTransactionLimit]
	}
	fmt.Println("\nRecent transactions:")
	for _, transaction := range transactions {
		fmt.Printf("  %s  %-7s %12s  %s\n",
			transaction.Date.Format("2006-01-02"), transaction.Type,
			money.Format(transaction.Amount), transaction.Description)
	}
	return nil
}

// printGroups lists the groups the selector can switch to.
func printGroups(ctx context.Context, selector *session.Selector) error {
	groups, err := selector.AvailableGroups(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch groups: %w", err)
	}
	if len(groups) == 0 {
		fmt.Println("No groups; only the personal context is available.")
		return nil
	}
	for _, group := range groups {
		fmt.Printf("  %s  %s\n", group.ID, group.Name)
	}
	return nil
}

// switchContext persists a new selection for subsequent runs.
func switchContext(ctx context.Context, selector *session.Selector, target string) error {
	if target == "personal" {
		if err := selector.SelectPersonal(); err != nil {
			return fmt.Errorf("failed to switch context: %w", err)
		}
		fmt.Println("Switched to the personal context.")
		return nil
	}

	selected, err := selector.SelectGroup(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to switch context: %w", err)
	}
	fmt.Printf("Switched to group %s (%s).\n", selected.GroupName, selected.GroupID)
	return nil
}
