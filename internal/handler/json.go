package handler

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/PerrimLc/Trabalho-final-API/internal/domain"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/cashback"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/customer"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/lifecycle"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/order"
	"github.com/PerrimLc/Trabalho-final-API/internal/domain/product"
)

const maxBodyBytes = 1 << 20

// decodeObject reads a JSON object body and calls field for every key.
// An empty body is accepted only when optional is set.
func decodeObject(w http.ResponseWriter, r *http.Request, optional bool, field func(d *jx.Decoder, key string) error) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return domain.InvalidInput("body", err.Error())
	}
	if len(bytes.TrimSpace(body)) == 0 {
		if optional {
			return nil
		}
		return domain.InvalidInput("body", "required")
	}
	if err := jx.DecodeBytes(body).Obj(field); err != nil {
		return domain.InvalidInput("body", err.Error())
	}
	return nil
}

// decodeDecimal accepts a JSON number or a numeric string.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		raw = n.String()
	default:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		raw = s
	}
	return decimal.NewFromString(raw)
}

func decodeItem(d *jx.Decoder) (lifecycle.ItemRequest, error) {
	var it lifecycle.ItemRequest
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "product_id":
			it.ProductID, err = d.Str()
		case "quantity":
			it.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	return it, err
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := &jx.Encoder{}
	encode(e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func money(e *jx.Encoder, field string, v decimal.Decimal) {
	e.FieldStart(field)
	e.Num(jx.Num(v.StringFixed(2)))
}

func str(e *jx.Encoder, field, v string) {
	e.FieldStart(field)
	e.Str(v)
}

func timestamp(e *jx.Encoder, field string, t time.Time) {
	e.FieldStart(field)
	e.Str(t.UTC().Format(time.RFC3339))
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	str(e, "id", o.ID)
	str(e, "customer_id", o.CustomerID)
	str(e, "status", o.Status.String())
	timestamp(e, "created_at", o.CreatedAt)
	e.FieldStart("items")
	e.ArrStart()
	for _, li := range o.Items {
		e.ObjStart()
		str(e, "id", li.ID)
		str(e, "product_id", li.ProductID)
		str(e, "product_name", li.ProductName)
		e.FieldStart("quantity")
		e.Int(li.Quantity)
		money(e, "unit_price", li.UnitPrice)
		money(e, "discount", li.Discount)
		money(e, "subtotal", li.Subtotal())
		e.ObjEnd()
	}
	e.ArrEnd()
	money(e, "discount_total", o.DiscountTotal())
	money(e, "total", o.Total())
	money(e, "payable", o.Payable())
	e.ObjEnd()
}

func encodeCheckout(e *jx.Encoder, res *lifecycle.CheckoutResult) {
	e.ObjStart()
	e.FieldStart("order")
	encodeOrder(e, res.Order)
	money(e, "items_total", res.ItemsTotal)
	money(e, "redeemed", res.Redeemed)
	money(e, "payable", res.Payable)
	money(e, "cashback_earned", res.CashbackEarned)
	money(e, "wallet_before", res.WalletBefore)
	money(e, "wallet_after", res.WalletAfter)
	e.ObjEnd()
}

func encodeProduct(e *jx.Encoder, p *product.Product) {
	e.ObjStart()
	str(e, "id", p.ID)
	str(e, "name", p.Name)
	money(e, "price", p.Price)
	e.FieldStart("stock")
	e.Int(p.Stock)
	e.FieldStart("active")
	e.Bool(p.Active)
	str(e, "category_id", p.CategoryID)
	e.ObjEnd()
}

func encodeCategory(e *jx.Encoder, c *product.Category) {
	e.ObjStart()
	str(e, "id", c.ID)
	str(e, "name", c.Name)
	e.ObjEnd()
}

func encodeCustomer(e *jx.Encoder, c *customer.Customer) {
	e.ObjStart()
	str(e, "id", c.ID)
	str(e, "name", c.Name)
	money(e, "wallet", c.Wallet)
	timestamp(e, "created_at", c.CreatedAt)
	e.ObjEnd()
}

func encodeCashback(e *jx.Encoder, rec *cashback.Record) {
	e.ObjStart()
	str(e, "id", rec.ID)
	str(e, "order_id", rec.OrderID)
	money(e, "amount", rec.Amount)
	money(e, "balance", rec.Balance)
	e.FieldStart("active")
	e.Bool(rec.Active)
	timestamp(e, "created_at", rec.CreatedAt)
	e.ObjEnd()
}

// encodeList writes items as a JSON array using encode for each element.
func encodeList[T any](e *jx.Encoder, items []T, encode func(*jx.Encoder, *T)) {
	e.ArrStart()
	for i := range items {
		encode(e, &items[i])
	}
	e.ArrEnd()
}
