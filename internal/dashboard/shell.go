package dashboard

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode"

	"github.com/angelmondragon/shopdesk/internal/catalog"
	"github.com/angelmondragon/shopdesk/internal/customers"
	"github.com/angelmondragon/shopdesk/internal/form"
	"github.com/angelmondragon/shopdesk/internal/listview"
	"github.com/angelmondragon/shopdesk/internal/manufacturing"
	"github.com/angelmondragon/shopdesk/internal/notify"
	"github.com/angelmondragon/shopdesk/internal/sales"
	pkgerrors "github.com/angelmondragon/shopdesk/pkg/errors"
	"github.com/angelmondragon/shopdesk/pkg/types"
)

const prompt = "shopdesk> "

const helpText = `commands:
  customers [list|refresh|next|prev|page N|clear]
  customers filter city=TEXT area=TEXT
  customers add shop_name=.. name=.. city=.. area_name=.. [contact_no=..]
  customers edit ID field=value...
  customers delete ID
  manufactures [list|refresh|next|prev|page N|clear|groups [all]]
  manufactures filter start=YYYY-MM-DD end=YYYY-MM-DD
  manufactures add manufacture_date=.. product_id=.. measurement_id=.. quantity=N
  manufactures edit ID field=value...
  manufactures delete ID
  sales [list|refresh|next|prev|page N]
  sales add customer_id=.. product_id=.. measurement_id=.. qty=N price=X
  sales edit ID field=value...
  sales deliver ID | sales revert ID | sales delete ID
  stocks [list|refresh|next|prev|page N]
  products | measurements
  help | quit
products, measurements and customers may be given by id or by name.`

var errQuit = errors.New("quit")

// usageError is a malformed command; it is printed rather than notified.
type usageError string

func (u usageError) Error() string { return string(u) }

// Shell runs dashboard commands read one per line. Pass the same reader to
// any PromptConfirmer so confirmation answers are read in order.
type Shell struct {
	app *App
	in  *bufio.Reader
	out io.Writer
}

func NewShell(app *App, in io.Reader, out io.Writer) *Shell {
	return &Shell{app: app, in: bufio.NewReader(in), out: out}
}

// Run reads commands until EOF, quit or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		fmt.Fprint(s.out, prompt)
		line, readErr := s.in.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			err := s.Exec(ctx, line)
			if errors.Is(err, errQuit) {
				return nil
			}
			var usage usageError
			if errors.As(err, &usage) {
				fmt.Fprintln(s.out, usage.Error())
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				fmt.Fprintln(s.out)
				return nil
			}
			return readErr
		}
	}
	return nil
}

// Exec runs one command line. Failures from the views have already been
// notified when Exec returns them.
func (s *Shell) Exec(ctx context.Context, line string) error {
	args, err := splitArgs(line)
	if err != nil {
		return usageError(err.Error())
	}
	if len(args) == 0 {
		return nil
	}
	switch strings.ToLower(args[0]) {
	case "help", "?":
		fmt.Fprintln(s.out, helpText)
		return nil
	case "quit", "exit":
		return errQuit
	case "customers":
		return s.customers(ctx, args[1:])
	case "manufactures":
		return s.manufactures(ctx, args[1:])
	case "sales":
		return s.sales(ctx, args[1:])
	case "stocks":
		return s.stocks(ctx, args[1:])
	case "products":
		return s.products(ctx)
	case "measurements":
		return s.measurements(ctx)
	}
	return usageError(fmt.Sprintf("unknown command %q; type help", args[0]))
}

func (s *Shell) customers(ctx context.Context, args []string) error {
	m := s.app.Customers
	sub, rest := subcommand(args)
	switch sub {
	case "list":
		if err := ensure(ctx, m.View().Loaded(), m.Load); err != nil {
			return err
		}
	case "refresh":
		if err := m.Load(ctx); err != nil {
			return err
		}
	case "next", "prev", "page":
		if err := ensure(ctx, m.View().Loaded(), m.Load); err != nil {
			return err
		}
		if err := s.paginate(ctx, m.View(), sub, rest); err != nil {
			return err
		}
	case "filter":
		values, err := parseAssignments(rest)
		if err != nil {
			return err
		}
		for key := range values {
			if key != customers.FilterCity && key != customers.FilterArea {
				return usageError("customers filter takes city= and area=")
			}
		}
		if city, ok := values[customers.FilterCity]; ok {
			if err := m.FilterByCity(ctx, city); err != nil {
				return err
			}
		}
		if area, ok := values[customers.FilterArea]; ok {
			if err := m.FilterByArea(ctx, area); err != nil {
				return err
			}
		}
	case "clear":
		if err := m.ClearFilters(ctx); err != nil {
			return err
		}
	case "add":
		values, err := parseAssignments(rest)
		if err != nil {
			return err
		}
		m.StartCreate()
		if err := applyFields(m.Form(), customerFields, values); err != nil {
			return s.fail(ctx, err)
		}
		return m.Submit(ctx)
	case "edit":
		id, values, err := idAndAssignments(rest)
		if err != nil {
			return err
		}
		if err := ensure(ctx, m.View().Loaded(), m.Load); err != nil {
			return err
		}
		if err := m.StartEdit(id); err != nil {
			return s.fail(ctx, err)
		}
		if err := applyFields(m.Form(), customerFields, values); err != nil {
			return s.fail(ctx, err)
		}
		return m.Submit(ctx)
	case "delete":
		id, err := singleID(rest)
		if err != nil {
			return err
		}
		deleted, err := m.Delete(ctx, id)
		if err == nil && !deleted {
			fmt.Fprintln(s.out, "cancelled")
		}
		return err
	default:
		return usageError("unknown customers command " + strconv.Quote(sub))
	}
	s.printCustomers()
	return nil
}

var customerFields = map[string]func(*customers.Form, string) error{
	"shop_name": func(f *customers.Form, v string) error { f.ShopName = v; return nil },
	"name":      func(f *customers.Form, v string) error { f.Name = v; return nil },
	"city":      func(f *customers.Form, v string) error { f.City = v; return nil },
	"area_name": func(f *customers.Form, v string) error { f.AreaName = v; return nil },
	"contact_no": func(f *customers.Form, v string) error {
		f.ContactNo = form.SanitizeContact(v)
		return nil
	},
}

func (s *Shell) printCustomers() {
	view := s.app.Customers.View()
	items := view.PageItems()
	if len(items) == 0 {
		fmt.Fprintln(s.out, "no customers found")
		return
	}
	s.table("ID\tSHOP\tOWNER\tCITY\tAREA\tCONTACT", func(w io.Writer) {
		for _, c := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.ShopName, c.OwnerName, c.City, c.Area, c.ContactNumber)
		}
	})
	s.pageLine(view.PageInfo(), view.Filters())
}

func (s *Shell) manufactures(ctx context.Context, args []string) error {
	m := s.app.Manufacturing
	sub, rest := subcommand(args)
	switch sub {
	case "list":
		if err := ensure(ctx, m.View().Loaded(), m.Load); err != nil {
			return err
		}
	case "refresh":
		if err := m.Load(ctx); err != nil {
			return err
		}
	case "next", "prev", "page":
		if err := ensure(ctx, m.View().Loaded(), m.Load); err != nil {
			return err
		}
		if err := s.paginate(ctx, m.View(), sub, rest); err != nil {
			return err
		}
	case "groups":
		if err := ensure(ctx, m.View().Loaded(), m.Load); err != nil {
			return err
		}
		groups := m.PageGroups()
		if len(rest) > 0 && rest[0] == "all" {
			groups = m.Groups()
		}
		s.printGroups(groups)
		return nil
	case "filter":
		values, err := parseAssignments(rest)
		if err != nil {
			return err
		}
		for key := range values {
			if key != "start" && key != "end" {
				return usageError("manufactures filter takes start= and end=")
			}
		}
		if err := ensure(ctx, m.Catalog().Loaded(), m.Catalog().Load); err != nil {
			return s.fail(ctx, err)
		}
		if err := m.SetDateRange(ctx, values["start"], values["end"]); err != nil {
			return err
		}
	case "clear":
		if err := m.ClearFilters(ctx); err != nil {
			return err
		}
	case "add":
		values, err := parseAssignments(rest)
		if err != nil {
			return err
		}
		if err := ensure(ctx, m.Catalog().Loaded(), m.Catalog().Load); err != nil {
			return s.fail(ctx, err)
		}
		m.StartCreate()
		if err := applyFields(m.Form(), manufactureFields(m.Catalog()), values); err != nil {
			return s.fail(ctx, err)
		}
		return m.Submit(ctx)
	case "edit":
		id, values, err := idAndAssignments(rest)
		if err != nil {
			return err
		}
		if err := ensure(ctx, m.View().Loaded(), m.Load); err != nil {
			return err
		}
		if err := m.StartEdit(id); err != nil {
			return s.fail(ctx, err)
		}
		if err := applyFields(m.Form(), manufactureFields(m.Catalog()), values); err != nil {
			return s.fail(ctx, err)
		}
		return m.Submit(ctx)
	case "delete":
		id, err := singleID(rest)
		if err != nil {
			return err
		}
		deleted, err := m.Delete(ctx, id)
		if err == nil && !deleted {
			fmt.Fprintln(s.out, "cancelled")
		}
		return err
	default:
		return usageError("unknown manufactures command " + strconv.Quote(sub))
	}
	s.printManufactures()
	return nil
}

func manufactureFields(cat *catalog.Catalog) map[string]func(*manufacturing.Form, string) error {
	return map[string]func(*manufacturing.Form, string) error{
		"manufacture_date": func(f *manufacturing.Form, v string) error { f.ManufactureDate = v; return nil },
		"product_id": func(f *manufacturing.Form, v string) error {
			id, err := resolveProduct(cat, v)
			f.ProductID = id
			return err
		},
		"measurement_id": func(f *manufacturing.Form, v string) error {
			id, err := resolveMeasurement(cat, v)
			f.MeasurementID = id
			return err
		},
		"quantity": func(f *manufacturing.Form, v string) error {
			n, err := parseInt("quantity", v)
			f.Quantity = n
			return err
		},
	}
}

func (s *Shell) printManufactures() {
	m := s.app.Manufacturing
	items := m.View().PageItems()
	if len(items) == 0 {
		fmt.Fprintln(s.out, "no manufacturing records found")
		return
	}
	cat := m.Catalog()
	s.table("ID\tDATE\tPRODUCT\tMEASUREMENT\tQUANTITY", func(w io.Writer) {
		for _, r := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", r.ID, r.ManufactureDate, cat.ProductName(r.ProductID), cat.MeasurementName(r.MeasurementID), r.Quantity)
		}
	})
	s.pageLine(m.View().PageInfo(), m.View().Filters())
}

func (s *Shell) printGroups(groups []manufacturing.Group) {
	if len(groups) == 0 {
		fmt.Fprintln(s.out, "no manufacturing records found")
		return
	}
	cat := s.app.Manufacturing.Catalog()
	for _, g := range groups {
		fmt.Fprintf(s.out, "%s  total %d\n", g.Date, g.Quantity())
		s.table("  ID\tPRODUCT\tMEASUREMENT\tQUANTITY", func(w io.Writer) {
			for _, r := range g.Records {
				fmt.Fprintf(w, "  %s\t%s\t%s\t%d\n", r.ID, cat.ProductName(r.ProductID), cat.MeasurementName(r.MeasurementID), r.Quantity)
			}
		})
	}
}

func (s *Shell) sales(ctx context.Context, args []string) error {
	m := s.app.Sales
	sub, rest := subcommand(args)
	switch sub {
	case "list":
		if err := ensure(ctx, m.View().Loaded(), m.Load); err != nil {
			return err
		}
	case "refresh":
		if err := m.Load(ctx); err != nil {
			return err
		}
	case "next", "prev", "page":
		if err := ensure(ctx, m.View().Loaded(), m.Load); err != nil {
			return err
		}
		if err := s.paginate(ctx, m.View(), sub, rest); err != nil {
			return err
		}
	case "add":
		values, err := parseAssignments(rest)
		if err != nil {
			return err
		}
		if err := ensure(ctx, m.Catalog().Loaded(), m.Load); err != nil {
			return err
		}
		m.StartCreate()
		return s.submitSale(ctx, values)
	case "edit":
		id, values, err := idAndAssignments(rest)
		if err != nil {
			return err
		}
		if err := ensure(ctx, m.View().Loaded(), m.Load); err != nil {
			return err
		}
		if err := m.StartEdit(id); err != nil {
			return s.fail(ctx, err)
		}
		return s.submitSale(ctx, values)
	case "deliver":
		id, err := singleID(rest)
		if err != nil {
			return err
		}
		if err := ensure(ctx, m.View().Loaded(), m.Load); err != nil {
			return err
		}
		delivered, err := m.Deliver(ctx, id)
		if err == nil && !delivered {
			fmt.Fprintln(s.out, "cancelled")
		}
		return err
	case "revert":
		id, err := singleID(rest)
		if err != nil {
			return err
		}
		if err := ensure(ctx, m.View().Loaded(), m.Load); err != nil {
			return err
		}
		return m.Revert(ctx, id)
	case "delete":
		id, err := singleID(rest)
		if err != nil {
			return err
		}
		deleted, err := m.Delete(ctx, id)
		if err == nil && !deleted {
			fmt.Fprintln(s.out, "cancelled")
		}
		return err
	default:
		return usageError("unknown sales command " + strconv.Quote(sub))
	}
	s.printSales()
	return nil
}

// submitSale fills the open sale form and submits it. The customer goes
// through the picker so only listed customers can be chosen.
func (s *Shell) submitSale(ctx context.Context, values map[string]string) error {
	m := s.app.Sales
	if raw, ok := values["customer_id"]; ok {
		delete(values, "customer_id")
		id, err := resolveCustomer(m, raw)
		if err != nil {
			return s.fail(ctx, err)
		}
		if err := m.SelectCustomer(id); err != nil {
			return s.fail(ctx, err)
		}
	}
	if err := applyFields(m.Form(), saleFields(m.Catalog()), values); err != nil {
		return s.fail(ctx, err)
	}
	fmt.Fprintf(s.out, "total: %s\n", m.Form().Values().Total().StringFixed(2))
	return m.Submit(ctx)
}

func saleFields(cat *catalog.Catalog) map[string]func(*sales.Form, string) error {
	return map[string]func(*sales.Form, string) error{
		"product_id": func(f *sales.Form, v string) error {
			id, err := resolveProduct(cat, v)
			f.ProductID = id
			return err
		},
		"measurement_id": func(f *sales.Form, v string) error {
			id, err := resolveMeasurement(cat, v)
			f.MeasurementID = id
			return err
		},
		"qty": func(f *sales.Form, v string) error {
			n, err := parseInt("qty", v)
			f.Qty = n
			return err
		},
		"price": func(f *sales.Form, v string) error { f.Price = v; return nil },
	}
}

func (s *Shell) printSales() {
	m := s.app.Sales
	items := m.View().PageItems()
	if len(items) == 0 {
		fmt.Fprintln(s.out, "no sales found")
		return
	}
	cat := m.Catalog()
	s.table("ID\tCUSTOMER\tPRODUCT\tMEASUREMENT\tQTY\tPRICE\tTOTAL\tSTATUS\tCREATED\tDELIVERED", func(w io.Writer) {
		for _, sale := range items {
			delivered := "-"
			if sale.DeliveredDate != nil {
				delivered = sale.DeliveredDate.String()
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
				sale.ID, m.CustomerName(sale.CustomerID), cat.ProductName(sale.ProductID), cat.MeasurementName(sale.MeasurementID),
				sale.Qty, sale.Price.StringFixed(2), sale.TotalAmount.StringFixed(2), sale.Status, sale.CreatedDate, delivered)
		}
	})
	s.pageLine(m.View().PageInfo(), nil)
}

func (s *Shell) stocks(ctx context.Context, args []string) error {
	m := s.app.Stock
	sub, rest := subcommand(args)
	switch sub {
	case "list":
		if err := ensure(ctx, m.View().Loaded(), m.Load); err != nil {
			return err
		}
	case "refresh":
		if err := m.Load(ctx); err != nil {
			return err
		}
	case "next", "prev", "page":
		if err := ensure(ctx, m.View().Loaded(), m.Load); err != nil {
			return err
		}
		if err := s.paginate(ctx, m.View(), sub, rest); err != nil {
			return err
		}
	default:
		return usageError("unknown stocks command " + strconv.Quote(sub))
	}

	items := m.View().PageItems()
	if len(items) == 0 {
		fmt.Fprintln(s.out, "no stock found")
		return nil
	}
	s.table("PRODUCT\tMEASUREMENT\tQUANTITY", func(w io.Writer) {
		for _, r := range items {
			fmt.Fprintf(w, "%s\t%s\t%d\n", r.Product, r.Measurement, r.Quantity)
		}
	})
	s.pageLine(m.View().PageInfo(), nil)
	return nil
}

func (s *Shell) products(ctx context.Context) error {
	if err := s.app.Catalog.Load(ctx); err != nil {
		return s.fail(ctx, err)
	}
	s.table("ID\tPRODUCT", func(w io.Writer) {
		for _, p := range s.app.Catalog.Products() {
			fmt.Fprintf(w, "%s\t%s\n", p.ID, p.Name)
		}
	})
	return nil
}

func (s *Shell) measurements(ctx context.Context) error {
	if err := s.app.Catalog.Load(ctx); err != nil {
		return s.fail(ctx, err)
	}
	s.table("ID\tMEASUREMENT", func(w io.Writer) {
		for _, m := range s.app.Catalog.Measurements() {
			fmt.Fprintf(w, "%s\t%s\n", m.ID, m.Name)
		}
	})
	return nil
}

type pager interface {
	GoToPage(ctx context.Context, n int) error
	NextPage(ctx context.Context) error
	PrevPage(ctx context.Context) error
}

func (s *Shell) paginate(ctx context.Context, p pager, sub string, rest []string) error {
	var err error
	switch sub {
	case "next":
		err = p.NextPage(ctx)
	case "prev":
		err = p.PrevPage(ctx)
	default:
		if len(rest) != 1 {
			return usageError("page takes one page number")
		}
		n, convErr := strconv.Atoi(rest[0])
		if convErr != nil {
			return usageError("page number must be an integer")
		}
		err = p.GoToPage(ctx, n)
	}
	if err != nil {
		return s.fail(ctx, err)
	}
	return nil
}

// fail notifies an error the views did not already report.
func (s *Shell) fail(ctx context.Context, err error) error {
	var usage usageError
	if errors.As(err, &usage) {
		return err
	}
	s.app.notifier.Notify(ctx, pkgerrors.UserMessage(err), notify.KindError)
	return err
}

func (s *Shell) table(header string, rows func(w io.Writer)) {
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	_ = tw.Flush()
}

func (s *Shell) pageLine(info listview.PageInfo, filters map[string]string) {
	pages := info.TotalPages
	if pages < 1 {
		pages = 1
	}
	line := fmt.Sprintf("page %d of %d, %d total", info.Page, pages, info.TotalCount)
	if len(filters) > 0 {
		parts := make([]string, 0, len(filters))
		for _, key := range slices.Sorted(maps.Keys(filters)) {
			parts = append(parts, key+"="+filters[key])
		}
		line += " (" + strings.Join(parts, ", ") + ")"
	}
	fmt.Fprintln(s.out, line)
}

func ensure(ctx context.Context, loaded bool, load func(context.Context) error) error {
	if loaded {
		return nil
	}
	return load(ctx)
}

func applyFields[F any](ctrl *form.Controller[F], fields map[string]func(*F, string) error, values map[string]string) error {
	keys := slices.Sorted(maps.Keys(values))
	for _, key := range keys {
		if _, ok := fields[key]; !ok {
			return usageError(fmt.Sprintf("unknown field %q; expected one of %s", key, strings.Join(slices.Sorted(maps.Keys(fields)), ", ")))
		}
	}
	var err error
	ctrl.Update(func(f *F) {
		for _, key := range keys {
			if setErr := fields[key](f, values[key]); setErr != nil && err == nil {
				err = setErr
			}
		}
	})
	return err
}

func resolveProduct(cat *catalog.Catalog, value string) (string, error) {
	for _, p := range cat.Products() {
		if p.ID.String() == value || strings.EqualFold(p.Name, value) {
			return p.ID.String(), nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown product "+strconv.Quote(value))
}

func resolveMeasurement(cat *catalog.Catalog, value string) (string, error) {
	for _, m := range cat.Measurements() {
		if m.ID.String() == value || strings.EqualFold(m.Name, value) {
			return m.ID.String(), nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown measurement "+strconv.Quote(value))
}

// resolveCustomer accepts a customer id or a fragment of exactly one shop name.
func resolveCustomer(m *sales.Module, value string) (types.ID, error) {
	for _, c := range m.SearchCustomers("") {
		if c.ID.String() == value {
			return c.ID, nil
		}
	}
	matches := m.SearchCustomers(value)
	switch len(matches) {
	case 1:
		return matches[0].ID, nil
	case 0:
		return "", pkgerrors.New(pkgerrors.CodeValidation, "no customer matches "+strconv.Quote(value))
	}
	names := make([]string, 0, len(matches))
	for _, c := range matches {
		names = append(names, c.ShopName)
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%q matches several customers: %s", value, strings.Join(names, ", ")))
}

func parseInt(field, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, field+" must be a whole number")
	}
	return n, nil
}

func subcommand(args []string) (string, []string) {
	if len(args) == 0 {
		return "list", nil
	}
	return strings.ToLower(args[0]), args[1:]
}

func singleID(args []string) (types.ID, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", usageError("expected exactly one id")
	}
	return types.ID(strings.TrimSpace(args[0])), nil
}

func idAndAssignments(args []string) (types.ID, map[string]string, error) {
	if len(args) == 0 {
		return "", nil, usageError("expected an id")
	}
	values, err := parseAssignments(args[1:])
	if err != nil {
		return "", nil, err
	}
	return types.ID(strings.TrimSpace(args[0])), values, nil
}

func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		if !ok || key == "" {
			return nil, usageError(fmt.Sprintf("expected field=value, got %q", arg))
		}
		out[key] = value
	}
	return out, nil
}

// splitArgs splits on whitespace; double quotes group words.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inQuote bool
		have    bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			have = true
		case !inQuote && unicode.IsSpace(r):
			if have {
				args = append(args, cur.String())
				cur.Reset()
				have = false
			}
		default:
			cur.WriteRune(r)
			have = true
		}
	}
	if inQuote {
		return nil, errors.New("unterminated quote")
	}
	if have {
		args = append(args, cur.String())
	}
	return args, nil
}
