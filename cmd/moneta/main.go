package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/moneta/internal/app"
	"github.com/bobmcallan/moneta/internal/common"
	"github.com/bobmcallan/moneta/internal/models"
)

const dateLayout = "2006-01-02"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	if os.Args[1] == "version" {
		fmt.Println(common.GetFullVersion())
		return
	}

	a, err := app.NewApp(os.Getenv("MONETA_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx := context.Background()

	var runErr error
	switch os.Args[1] {
	case "add":
		runErr = runAdd(ctx, a, os.Args[2:])
	case "list":
		runErr = runList(ctx, a, os.Args[2:])
	case "update":
		runErr = runUpdate(ctx, a, os.Args[2:])
	case "delete":
		runErr = runDelete(ctx, a, os.Args[2:])
	case "status":
		runErr = runStatus(ctx, a)
	default:
		usage()
		os.Exit(1)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: moneta <command> [flags]

Commands:
  add      Record a transaction (single, recurring, or installment)
  list     List transactions from the local view
  update   Update a transaction or its whole series
  delete   Delete a transaction or its whole series
  status   Show connectivity and sync state
  version  Print version information`)
}

func runAdd(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	kind := fs.String("kind", "expense", "income or expense")
	amount := fs.String("amount", "", "amount (required, positive)")
	title := fs.String("title", "", "optional title")
	desc := fs.String("desc", "", "description (required)")
	date := fs.String("date", time.Now().Format(dateLayout), "date (YYYY-MM-DD)")
	category := fs.String("category", "", "category id (required)")
	account := fs.String("account", "", "account id (one of -account/-card)")
	card := fs.String("card", "", "card id (one of -account/-card)")
	method := fs.String("method", "", "payment method: cash, pix, or card")
	launch := fs.String("launch", "single", "single, recurring, or installment")
	cadence := fs.String("cadence", "monthly", "recurring cadence: annual, monthly, or weekly")
	count := fs.Int("count", 0, "series size (default 12 recurring, 1 installment)")
	perInstallment := fs.Bool("per-installment", false, "amount is per installment, not the total")
	fs.Parse(args)

	amt, err := decimal.NewFromString(*amount)
	if err != nil {
		return common.Validation("amount must be a decimal number")
	}
	when, err := time.Parse(dateLayout, *date)
	if err != nil {
		return common.Validation("date must be YYYY-MM-DD")
	}

	var source models.PaymentSource
	if *account != "" {
		source = models.AccountSource(*account)
	} else if *card != "" {
		source = models.CardSource(*card)
	}

	var plan models.LaunchPlan
	switch models.LaunchType(*launch) {
	case models.LaunchSingle:
		plan = models.SingleLaunch()
	case models.LaunchRecurring:
		plan = models.RecurringLaunch(models.Cadence(*cadence), *count)
	case models.LaunchInstallment:
		plan = models.InstallmentLaunch(*count, *perInstallment)
	default:
		return common.Validation("launch must be single, recurring, or installment")
	}

	req := &models.LedgerRequest{
		Kind:          models.EntryKind(*kind),
		Amount:        amt,
		Title:         *title,
		Description:   *desc,
		Date:          when,
		CategoryID:    *category,
		Source:        source,
		PaymentMethod: models.PaymentMethod(*method),
		Launch:        plan,
	}

	entries, err := a.SyncEngine.CreateEntries(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("Created %d entr%s\n", len(entries), plural(len(entries), "y", "ies"))
	printEntries(entries)
	return nil
}

func runList(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	from := fs.String("from", "", "start date (YYYY-MM-DD)")
	to := fs.String("to", "", "end date (YYYY-MM-DD)")
	category := fs.String("category", "", "filter by category id")
	account := fs.String("account", "", "filter by account id")
	card := fs.String("card", "", "filter by card id")
	launch := fs.String("launch", "", "filter by launch type")
	kind := fs.String("kind", "", "filter by kind")
	limit := fs.Int("limit", 50, "maximum rows")
	fs.Parse(args)

	filter := &models.EntryFilter{
		CategoryID: *category,
		AccountID:  *account,
		CardID:     *card,
		LaunchType: models.LaunchType(*launch),
		Kind:       models.EntryKind(*kind),
		Limit:      *limit,
	}
	if *from != "" {
		t, err := time.Parse(dateLayout, *from)
		if err != nil {
			return common.Validation("from must be YYYY-MM-DD")
		}
		filter.StartDate = t
	}
	if *to != "" {
		t, err := time.Parse(dateLayout, *to)
		if err != nil {
			return common.Validation("to must be YYYY-MM-DD")
		}
		filter.EndDate = t
	}

	entries, err := a.SyncEngine.ListEntries(ctx, filter)
	if err != nil {
		return err
	}
	printEntries(entries)
	return nil
}

func runUpdate(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	id := fs.String("id", "", "entry id (required)")
	wholeSeries := fs.Bool("series", false, "apply to the whole series")
	amount := fs.String("amount", "", "new amount")
	title := fs.String("title", "", "new title")
	desc := fs.String("desc", "", "new description")
	date := fs.String("date", "", "new date (YYYY-MM-DD)")
	category := fs.String("category", "", "new category id")
	fs.Parse(args)

	if *id == "" {
		return common.Validation("-id is required")
	}

	patch := &models.EntryPatch{}
	if *amount != "" {
		amt, err := decimal.NewFromString(*amount)
		if err != nil {
			return common.Validation("amount must be a decimal number")
		}
		patch.Amount = &amt
	}
	if *title != "" {
		patch.Title = title
	}
	if *desc != "" {
		patch.Description = desc
	}
	if *date != "" {
		t, err := time.Parse(dateLayout, *date)
		if err != nil {
			return common.Validation("date must be YYYY-MM-DD")
		}
		patch.Date = &t
	}
	if *category != "" {
		patch.CategoryID = category
	}

	entries, err := a.SyncEngine.UpdateEntry(ctx, *id, patch, *wholeSeries)
	if err != nil {
		return err
	}
	fmt.Printf("Updated %d entr%s\n", len(entries), plural(len(entries), "y", "ies"))
	printEntries(entries)
	return nil
}

func runDelete(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.String("id", "", "entry id (required)")
	wholeSeries := fs.Bool("series", false, "delete the whole series")
	fs.Parse(args)

	if *id == "" {
		return common.Validation("-id is required")
	}

	if err := a.SyncEngine.DeleteEntry(ctx, *id, *wholeSeries); err != nil {
		return err
	}
	fmt.Println("Deleted")
	return nil
}

func runStatus(ctx context.Context, a *app.App) error {
	common.PrintBanner(a.Config, a.Logger)

	online := a.Monitor.Check(ctx)
	snap := a.Monitor.Snapshot()
	lastSync, _ := a.Storage.CacheStore().LastSuccessfulSync(ctx)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Connected\t%v\n", online)
	fmt.Fprintf(w, "Consecutive failures\t%d\n", snap.ConsecutiveFailures)
	if snap.LastCheckedAt != nil {
		fmt.Fprintf(w, "Last checked\t%s\n", snap.LastCheckedAt.Format(time.RFC3339))
	}
	if lastSync.IsZero() {
		fmt.Fprintf(w, "Last successful sync\tnever\n")
	} else {
		fmt.Fprintf(w, "Last successful sync\t%s\n", lastSync.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Data stale\t%v\n", a.Monitor.IsDataStale(lastSync))
	return w.Flush()
}

func printEntries(entries []*models.LedgerEntry) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tKIND\tAMOUNT\tDESCRIPTION\tLAUNCH\tSEQ\tID")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d/%d\t%s\n",
			e.Date.Format(dateLayout), e.Kind, e.Amount.StringFixed(2),
			e.Description, e.LaunchType, e.SequenceIndex, e.SeriesTotal, e.ID)
	}
	w.Flush()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
