// Command dhobictl is a terminal shell around the ordering engine: it walks
// the same catalog -> cart -> schedule -> submit -> track flow the mobile app
// does, against any compatible backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/dhobi-app/ordering/internal/cart"
	"github.com/dhobi-app/ordering/internal/catalog"
	"github.com/dhobi-app/ordering/internal/client"
	"github.com/dhobi-app/ordering/internal/config"
	"github.com/dhobi-app/ordering/internal/order"
	"github.com/dhobi-app/ordering/internal/schedule"
	"github.com/dhobi-app/ordering/internal/stream"
	"github.com/dhobi-app/ordering/internal/track"
)

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch os.Args[1] {
	case "catalog":
		err = runCatalog(ctx, cfg, os.Args[2:])
	case "slots":
		err = runSlots(ctx, cfg, os.Args[2:])
	case "place":
		err = runPlace(ctx, cfg, os.Args[2:])
	case "history":
		err = runHistory(ctx, cfg, os.Args[2:])
	case "track":
		err = runTrack(ctx, cfg, os.Args[2:])
	case "cancel":
		err = runCancel(ctx, cfg, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: dhobictl <command> [flags]

commands:
  catalog   show the branch price list, grouped by service
  slots     show offerable pickup slots for a date
  place     place an order (-items "entryID=qty,..." -slot N -date YYYY-MM-DD -payment prepaid|postpaid)
  history   list your past orders
  track     follow one order's status (-id ORDER, -watch to stream updates)
  cancel    cancel an order (-id ORDER)

environment: ORDER_API_URL, USER_ID, BRANCH_ID, COMPANY_ID`)
}

// login builds an authenticated client from the environment identity.
func login(ctx context.Context, cfg *config.Config) (*client.Client, error) {
	if cfg.UserID == "" || cfg.BranchID == "" || cfg.CompanyID == "" {
		return nil, fmt.Errorf("USER_ID, BRANCH_ID and COMPANY_ID must be set")
	}
	c := client.New(cfg.BaseURL)
	if err := c.Login(ctx, cfg.UserID, cfg.BranchID); err != nil {
		return nil, err
	}
	return c, nil
}

func runCatalog(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("catalog", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := login(ctx, cfg)
	if err != nil {
		return err
	}
	cat, err := catalog.Load(ctx, c, cfg.CompanyID, cfg.BranchID)
	if err != nil {
		return err
	}

	for _, g := range cat.Groups {
		fmt.Printf("%s\n", g.ServiceName)
		for _, e := range g.Items {
			fmt.Printf("  [%d] %-20s %s %s\n", e.ID, e.GarmentTypeName, e.Price.StringFixed(2), e.Currency)
		}
	}
	fmt.Printf("display currency: %s\n", cat.Currency)
	return nil
}

func runSlots(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("slots", flag.ExitOnError)
	dateStr := fs.String("date", time.Now().Format(order.PickupDateLayout), "pickup date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	date, err := time.ParseInLocation(order.PickupDateLayout, *dateStr, time.Local)
	if err != nil {
		return fmt.Errorf("invalid -date: %w", err)
	}

	c, err := login(ctx, cfg)
	if err != nil {
		return err
	}
	offered, err := schedule.Offered(ctx, c, cfg.CompanyID, date, time.Now())
	if err != nil {
		// Slot data being down must not block placement; the default
		// all-day window is offered instead.
		log.Printf("WARN: %v", err)
	}
	if len(offered) == 0 {
		fmt.Println("no pickup slots left for this date, try another day")
		return nil
	}
	for _, s := range offered {
		fmt.Printf("  [%d] %s\n", s.ScheduleID, s.Window)
	}
	return nil
}

func runPlace(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("place", flag.ExitOnError)
	items := fs.String("items", "", `selected entries as "entryID=qty,entryID=qty"`)
	slotID := fs.Int("slot", -1, "pickup slot schedule ID (0 for the default window)")
	dateStr := fs.String("date", "", "pickup date (YYYY-MM-DD)")
	payment := fs.String("payment", "", "payment method: prepaid or postpaid")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := login(ctx, cfg)
	if err != nil {
		return err
	}
	cat, err := catalog.Load(ctx, c, cfg.CompanyID, cfg.BranchID)
	if err != nil {
		return err
	}

	crt := cart.New(cat)
	if err := applyItems(crt, *items); err != nil {
		return err
	}

	sel := order.Selection{PaymentMethod: *payment}
	if *slotID >= 0 {
		sel.ScheduleID = slotID
	}
	if *dateStr != "" {
		date, err := time.ParseInLocation(order.PickupDateLayout, *dateStr, time.Local)
		if err != nil {
			return fmt.Errorf("invalid -date: %w", err)
		}
		sel.Date = date
	}

	b := order.Builder{UserID: cfg.UserID, BranchID: cfg.BranchID, CompanyID: cfg.CompanyID}
	draft, err := b.Build(crt, sel)
	if err != nil {
		return err
	}

	placed, err := order.Submit(ctx, c, draft)
	if err != nil {
		return err
	}

	fmt.Printf("order placed: %s\n", placed.ID)
	fmt.Printf("  total:  %s %s\n", placed.TotalAmount.StringFixed(2), crt.Currency())
	fmt.Printf("  pickup: %s, slot %d\n", placed.PickupDate, placed.PickupSlot)
	fmt.Printf("  estimated delivery: %s\n", placed.EstimatedDelivery().Format("Mon, 02 Jan 2006"))
	return nil
}

// applyItems parses "entryID=qty,..." and adjusts the cart accordingly.
func applyItems(crt *cart.Cart, items string) error {
	if strings.TrimSpace(items) == "" {
		return fmt.Errorf("-items is required")
	}
	for _, pair := range strings.Split(items, ",") {
		id, qty, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			return fmt.Errorf("invalid -items entry %q, want entryID=qty", pair)
		}
		entryID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid entry ID %q", id)
		}
		n, err := strconv.Atoi(qty)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid quantity %q for entry %s", qty, id)
		}
		if crt.Quantity(entryID) == 0 && n > 0 && !hasEntry(crt, entryID) {
			return fmt.Errorf("entry %d is not in the catalog", entryID)
		}
		crt.Adjust(entryID, n)
	}
	return nil
}

func hasEntry(crt *cart.Cart, entryID int64) bool {
	for _, l := range crt.Lines() {
		if l.EntryID == entryID {
			return true
		}
	}
	return false
}

func runHistory(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := login(ctx, cfg)
	if err != nil {
		return err
	}
	orders, err := c.FetchOrders(ctx, cfg.UserID)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Println("no orders yet")
		return nil
	}
	for _, o := range orders {
		st, _ := track.ByCode(o.Status)
		fmt.Printf("%s  %-16s %8s  placed %s\n",
			o.ID, st.Label, o.TotalAmount.StringFixed(2), o.OrderDateTime.Format("2006-01-02 15:04"))
	}
	return nil
}

func runTrack(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("track", flag.ExitOnError)
	orderID := fs.String("id", "", "order ID")
	watch := fs.Bool("watch", false, "stream live status updates")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *orderID == "" {
		return fmt.Errorf("-id is required")
	}

	c, err := login(ctx, cfg)
	if err != nil {
		return err
	}
	o, err := c.FetchOrder(ctx, *orderID)
	if err != nil {
		return err
	}

	tr := track.NewTracker(c, o)
	printStatus(tr, o)

	lines, err := c.FetchOrderSummary(ctx, *orderID)
	if err != nil {
		return err
	}
	printSummary(lines)

	if !*watch {
		return nil
	}

	fmt.Println("watching for updates (ctrl-c to stop)...")
	err = stream.Watch(ctx, c.BaseURL(), c.Token(), *orderID, func(code int, name string) {
		tr.Apply(code)
		s := tr.Status()
		fmt.Printf("  -> %s (%d%%)\n", s.Label, tr.Percentage())
	})
	if err != nil && !userStopped(err) {
		return err
	}
	return nil
}

// userStopped reports whether a watch ended because the user interrupted it
// rather than because of a transport failure.
func userStopped(err error) bool {
	return errors.Is(err, context.Canceled)
}

func printStatus(tr *track.Tracker, o *order.Order) {
	s := tr.Status()
	fmt.Printf("order %s\n", o.ID)
	fmt.Printf("  status: %s (%d%%) - %s\n", s.Label, tr.Percentage(), s.Description)
	if tr.IsCancelled() {
		return
	}
	fmt.Printf("  estimated delivery: %s\n", o.EstimatedDelivery().Format("Mon, 02 Jan 2006"))
	if tr.CanCancel() {
		fmt.Println("  this order can still be cancelled")
	}
}

func printSummary(lines []order.SummaryLine) {
	if len(lines) == 0 {
		return
	}
	fmt.Println("  items:")
	for _, g := range track.GroupByGarmentType(lines) {
		fmt.Printf("    %s\n", g.GarmentTypeName)
		for _, l := range g.Lines {
			fmt.Printf("      %-16s x%d @ %s = %s\n",
				l.ServiceName, l.Quantity, l.UnitPrice.StringFixed(2), l.TotalPrice.StringFixed(2))
		}
	}
	fmt.Printf("  grand total: %s\n", track.GrandTotal(lines).StringFixed(2))
}

func runCancel(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	orderID := fs.String("id", "", "order ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *orderID == "" {
		return fmt.Errorf("-id is required")
	}

	c, err := login(ctx, cfg)
	if err != nil {
		return err
	}
	o, err := c.FetchOrder(ctx, *orderID)
	if err != nil {
		return err
	}

	tr := track.NewTracker(c, o)
	if tr.IsCancelled() {
		fmt.Println("order is already cancelled")
		return nil
	}
	if err := tr.Cancel(ctx); err != nil {
		return err
	}
	fmt.Println("order cancelled")
	return nil
}
