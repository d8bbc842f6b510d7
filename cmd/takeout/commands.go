package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/takeout/client/internal/client"
	"github.com/takeout/client/internal/domain/cart"
	"github.com/takeout/client/internal/domain/shared/valueobject"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
}

func money(d decimal.Decimal) string {
	return valueobject.NewMoneyCNY(d).Display()
}

func (a *app) cmdBusinesses(ctx context.Context) error {
	resp, err := a.api.GetBusinessList(ctx)
	if err := client.CheckResponse(resp, err); err != nil {
		return err
	}
	w := a.table()
	fmt.Fprintln(w, "ID\tNAME\tSCORE\tDELIVERY\tMIN ORDER\tMONTHLY SALES")
	for _, b := range resp.Data.Data {
		fmt.Fprintf(w, "%d\t%s\t%.1f\t%s\t%s\t%d\n", b.ID, b.Name, b.Score, money(b.DeliveryFees), money(b.MiniDeliveryFee), b.MonthSold)
	}
	return w.Flush()
}

func (a *app) cmdBusiness(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: business <id>", errUsage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid business id %q", errUsage, args[0])
	}
	resp, err := a.api.GetBusiness(ctx, id)
	if err := client.CheckResponse(resp, err); err != nil {
		return err
	}
	b := resp.Data.Data
	fmt.Fprintf(a.out, "%s (#%d)\n%s\nscore %.1f, delivery %s, minimum %s\n",
		b.Name, b.ID, b.Description, b.Score, money(b.DeliveryFees), money(b.MiniDeliveryFee))
	return nil
}

func (a *app) cmdMenu(ctx context.Context, args []string) error {
	fs := newFlagSet("menu")
	businessID := fs.Int64("business", 0, "restaurant id")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	var filter *int64
	if *businessID > 0 {
		filter = businessID
	}
	resp, err := a.api.GetCommodityList(ctx, filter)
	if err := client.CheckResponse(resp, err); err != nil {
		return err
	}
	w := a.table()
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tIN CART")
	for _, c := range resp.Data.Data {
		inCart := 0
		if item, ok := a.cart.Item(c.ID); ok {
			inCart = item.Quantity
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", c.ID, c.Name, money(c.Price), inCart)
	}
	return w.Flush()
}

func (a *app) cmdCategories(ctx context.Context) error {
	resp, err := a.api.GetFoodTypeList(ctx)
	if err := client.CheckResponse(resp, err); err != nil {
		return err
	}
	w := a.table()
	fmt.Fprintln(w, "ID\tNAME")
	for _, t := range resp.Data.Data {
		fmt.Fprintf(w, "%d\t%s\n", t.ID, t.Name)
	}
	return w.Flush()
}

func credentialFlags(name string, args []string) (client.LoginCredentials, error) {
	fs := newFlagSet(name)
	var creds client.LoginCredentials
	fs.StringVar(&creds.Username, "u", "", "username")
	fs.StringVar(&creds.Password, "p", "", "password")
	if err := parseFlags(fs, args); err != nil {
		return creds, err
	}
	return creds, nil
}

func (a *app) cmdRegister(ctx context.Context, args []string) error {
	creds, err := credentialFlags("register", args)
	if err != nil {
		return err
	}
	msg, err := a.sessions.Register(ctx, creds)
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "registered"
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	creds, err := credentialFlags("login", args)
	if err != nil {
		return err
	}
	if _, err := a.sessions.Login(ctx, creds); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "logged in as %s\n", creds.Username)
	return nil
}

func (a *app) cmdLogout(ctx context.Context) error {
	if err := a.sessions.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

func (a *app) cmdWhoami(ctx context.Context) error {
	u, err := a.sessions.Profile(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (#%d)\n", u.Username, u.ID)
	return nil
}

func (a *app) cmdCart(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.showCart()
	}
	switch args[0] {
	case "show":
		return a.showCart()
	case "add":
		return a.cartAdd(ctx, args[1:])
	case "remove":
		return a.cartRemove(ctx, args[1:])
	case "clear":
		a.cart.ClearCart()
		a.cart.ClearCurrentOrder()
		if err := a.checkout.SaveCart(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "cart cleared")
		return nil
	default:
		return fmt.Errorf("%w: unknown cart command %q", errUsage, args[0])
	}
}

func (a *app) cartAdd(ctx context.Context, args []string) error {
	fs := newFlagSet("cart add")
	businessID := fs.Int64("business", 0, "restaurant id")
	itemID := fs.Int64("item", 0, "dish id")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *businessID <= 0 || *itemID <= 0 {
		return fmt.Errorf("%w: cart add -business <id> -item <id>", errUsage)
	}

	resp, err := a.api.GetCommodityList(ctx, businessID)
	if err := client.CheckResponse(resp, err); err != nil {
		return err
	}
	var dish *client.CommodityDTO
	for i := range resp.Data.Data {
		if resp.Data.Data[i].ID == *itemID {
			dish = &resp.Data.Data[i]
			break
		}
	}
	if dish == nil {
		return fmt.Errorf("dish %d is not on the menu of business %d", *itemID, *businessID)
	}

	if current, ok := a.cart.BusinessID(); ok && current != *businessID {
		a.cart.ClearCart()
		fmt.Fprintf(a.out, "cart held items from business %d and was emptied\n", current)
	}
	a.cart.SetBusinessID(*businessID)
	a.cart.AddItem(cart.Item{ID: dish.ID, Name: dish.Name, UnitPrice: dish.Price, ImageRef: dish.Img})
	if err := a.checkout.SaveCart(ctx); err != nil {
		return err
	}
	item, _ := a.cart.Item(dish.ID)
	fmt.Fprintf(a.out, "%s x%d, cart total %s\n", item.Name, item.Quantity, a.cart.Total().Display())
	return nil
}

func (a *app) cartRemove(ctx context.Context, args []string) error {
	fs := newFlagSet("cart remove")
	itemID := fs.Int64("item", 0, "dish id")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *itemID <= 0 {
		return fmt.Errorf("%w: cart remove -item <id>", errUsage)
	}
	a.cart.RemoveItem(*itemID)
	if err := a.checkout.SaveCart(ctx); err != nil {
		return err
	}
	return a.showCart()
}

func (a *app) showCart() error {
	if a.cart.IsEmpty() {
		fmt.Fprintln(a.out, "cart is empty")
		return nil
	}
	if id, ok := a.cart.BusinessID(); ok {
		fmt.Fprintf(a.out, "business %d\n", id)
	}
	w := a.table()
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tQTY\tSUBTOTAL")
	for _, item := range a.cart.Items() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", item.ID, item.Name, money(item.UnitPrice), item.Quantity, item.SubtotalMoney().Display())
	}
	fmt.Fprintf(w, "\t\t\t%d\t%s\n", a.cart.TotalQuantity(), a.cart.Total().Display())
	return w.Flush()
}

func (a *app) cmdCheckout(ctx context.Context) error {
	receipt, err := a.checkout.Checkout(ctx)
	if err != nil {
		return err
	}
	snap := receipt.Snapshot
	fmt.Fprintf(a.out, "order %s submitted: %d items, %s\n", snap.ID, snap.TotalQuantity(), snap.Total().Display())
	if receipt.Message != "" {
		fmt.Fprintln(a.out, receipt.Message)
	}
	return nil
}

func (a *app) cmdOrders(ctx context.Context, args []string) error {
	fs := newFlagSet("orders")
	paid := fs.Bool("paid", false, "list paid orders instead of unpaid ones")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	orders, err := a.checkout.Orders(ctx, *paid)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Fprintln(a.out, "no orders")
		return nil
	}
	w := a.table()
	fmt.Fprintln(w, "ORDER\tBUSINESS\tITEMS\tAMOUNT")
	for _, o := range orders {
		qty := 0
		for _, item := range o.OrderItemDTOs {
			qty += item.Quanity
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", o.OrderID, o.BusinessName, qty, money(o.PayAmount))
	}
	return w.Flush()
}
