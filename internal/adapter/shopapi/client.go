// Package shopapi wraps the remote lenny shop service. It performs no
// caching and holds no state: every call is a single request/response
// against the HTTP interface, and each call is independently failable.
package shopapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/iexcalibur/lenny-storefront/internal/entity"
)

const respBodyCap = 64 * 1024

type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

type Option func(*Client)

// WithServiceToken sets the bearer credential attached to every request.
func WithServiceToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	c := &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do executes one request. Transport failures come back wrapped; non-2xx
// responses come back as *StatusError. out may be nil for ack-only calls.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		apiRequests.WithLabelValues(op, outcomeTransport).Inc()
		return fmt.Errorf("%s: call shop service: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, respBodyCap))
	if err != nil {
		apiRequests.WithLabelValues(op, outcomeTransport).Inc()
		return fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiRequests.WithLabelValues(op, outcomeRejected).Inc()
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	apiRequests.WithLabelValues(op, outcomeOK).Inc()

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", op, err)
		}
	}
	return nil
}

// --- wire shapes ---

// flexString accepts both JSON strings and bare numbers; the catalog
// has shipped product ids in both shapes.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}

type productDTO struct {
	ID          flexString `json:"id"`
	Name        string     `json:"name"`
	Price       float64    `json:"price"`
	ImageURL    string     `json:"image_url"`
	Description string     `json:"description"`
	Rating      float64    `json:"rating"`
	Sold        int        `json:"sold"`
	Location    string     `json:"location"`
	Category    string     `json:"category"`
}

type cartItemDTO struct {
	ProductID flexString `json:"product_id"`
	Name      string     `json:"name"`
	Price     float64    `json:"price"`
	Quantity  int        `json:"quantity"`
	ImageURL  string     `json:"image_url"`
}

type cartDTO struct {
	Items []cartItemDTO `json:"items"`
}

type addLineReq struct {
	UserID    string  `json:"userId"`
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Name      string  `json:"name"`
	ImageURL  string  `json:"imageUrl"`
}

type setQuantityReq struct {
	UserID   string `json:"userId"`
	Quantity int    `json:"quantity"`
}

type checkoutReq struct {
	UserID       string `json:"userId"`
	DiscountCode string `json:"discountCode,omitempty"`
}

type checkoutResp struct {
	OrderID string `json:"orderId"`
	ID      string `json:"id"`
	Status  string `json:"status"`
}

type promoDTO struct {
	Code         string  `json:"code"`
	DiscountRate float64 `json:"discount_rate"`
}

type orderDTO struct {
	ID             flexString    `json:"id"`
	UserID         string        `json:"userId"`
	Items          []cartItemDTO `json:"items"`
	TotalAmount    float64       `json:"totalAmount"`
	DiscountCode   string        `json:"discountCode"`
	DiscountAmount float64       `json:"discountAmount"`
	CreatedAt      time.Time     `json:"createdAt"`
}

func toCartLine(d cartItemDTO) domain.CartLine {
	return domain.CartLine{
		ProductID: string(d.ProductID),
		Name:      d.Name,
		UnitPrice: decimal.NewFromFloat(d.Price),
		Quantity:  d.Quantity,
		ImageRef:  d.ImageURL,
	}
}

// --- operations ---

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var dtos []productDTO
	if err := c.do(ctx, "list_products", http.MethodGet, "/products", nil, nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, domain.Product{
			ID:          string(d.ID),
			Name:        d.Name,
			Price:       decimal.NewFromFloat(d.Price),
			ImageRef:    d.ImageURL,
			Description: d.Description,
			Rating:      d.Rating,
			Sold:        d.Sold,
			Location:    d.Location,
			Category:    d.Category,
		})
	}
	return out, nil
}

func (c *Client) FetchCart(ctx context.Context, ownerID string) (domain.CartSnapshot, error) {
	q := url.Values{"userId": {ownerID}}
	var dto cartDTO
	if err := c.do(ctx, "fetch_cart", http.MethodGet, "/cart", q, nil, &dto); err != nil {
		return domain.CartSnapshot{}, err
	}
	snap := domain.CartSnapshot{OwnerID: ownerID, Lines: make([]domain.CartLine, 0, len(dto.Items))}
	for _, it := range dto.Items {
		snap.Lines = append(snap.Lines, toCartLine(it))
	}
	return snap, nil
}

func (c *Client) AddLine(ctx context.Context, ownerID string, line domain.CartLine) error {
	if err := line.Validate(); err != nil {
		return err
	}
	body := addLineReq{
		UserID:    ownerID,
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
		Price:     line.UnitPrice.InexactFloat64(),
		Name:      line.Name,
		ImageURL:  line.ImageRef,
	}
	return c.do(ctx, "add_line", http.MethodPost, "/cart/add", nil, body, nil)
}

func (c *Client) SetLineQuantity(ctx context.Context, ownerID, productID string, quantity int) error {
	if quantity < 1 {
		return domain.ErrInvalidQuantity
	}
	body := setQuantityReq{UserID: ownerID, Quantity: quantity}
	return c.do(ctx, "set_line_quantity", http.MethodPut, "/cart/"+url.PathEscape(productID), nil, body, nil)
}

func (c *Client) RemoveLine(ctx context.Context, ownerID, productID string) error {
	q := url.Values{"userId": {ownerID}}
	return c.do(ctx, "remove_line", http.MethodDelete, "/cart/"+url.PathEscape(productID), q, nil, nil)
}

// Checkout is the one operation that is not safely retriable; callers
// guard it with an idempotency key (see usecase.Checkout).
func (c *Client) Checkout(ctx context.Context, ownerID, promoCode string) (domain.OrderConfirmation, error) {
	body := checkoutReq{UserID: ownerID, DiscountCode: promoCode}
	var dto checkoutResp
	err := c.do(ctx, "checkout", http.MethodPost, "/cart/checkout", nil, body, &dto)
	if err != nil {
		// A 2xx with an undecodable body is still a confirmed order; the
		// service is the source of truth for the persisted record.
		if isDecodeError(err) {
			return domain.OrderConfirmation{Status: domain.StatusConfirmed}, nil
		}
		return domain.OrderConfirmation{}, err
	}
	id := dto.OrderID
	if id == "" {
		id = dto.ID
	}
	status := domain.Status(dto.Status)
	if status == "" {
		status = domain.StatusConfirmed
	}
	return domain.OrderConfirmation{OrderID: id, Status: status}, nil
}

// FetchActivePromo returns nil when no promo is currently active.
func (c *Client) FetchActivePromo(ctx context.Context) (*domain.PromoCode, error) {
	var dto promoDTO
	err := c.do(ctx, "fetch_active_promo", http.MethodGet, "/admin/discount/active", nil, nil, &dto)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	if dto.Code == "" {
		return nil, nil
	}
	return &domain.PromoCode{Code: dto.Code, DiscountRate: decimal.NewFromFloat(dto.DiscountRate)}, nil
}

func (c *Client) CreatePromo(ctx context.Context, code string, rate decimal.Decimal) (domain.PromoCode, error) {
	p := domain.PromoCode{Code: code, DiscountRate: rate}
	if err := p.Validate(); err != nil {
		return domain.PromoCode{}, err
	}
	body := promoDTO{Code: code, DiscountRate: rate.InexactFloat64()}
	var dto promoDTO
	if err := c.do(ctx, "create_promo", http.MethodPost, "/admin/discount", nil, body, &dto); err != nil {
		return domain.PromoCode{}, err
	}
	if dto.Code == "" {
		return p, nil
	}
	return domain.PromoCode{Code: dto.Code, DiscountRate: decimal.NewFromFloat(dto.DiscountRate)}, nil
}

func (c *Client) FetchOrders(ctx context.Context, ownerID string) ([]domain.Order, error) {
	q := url.Values{"userId": {ownerID}}
	var dtos []orderDTO
	if err := c.do(ctx, "fetch_orders", http.MethodGet, "/orders", q, nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(dtos))
	for _, d := range dtos {
		o := domain.Order{
			ID:             string(d.ID),
			OwnerID:        d.UserID,
			TotalAmount:    decimal.NewFromFloat(d.TotalAmount),
			DiscountCode:   d.DiscountCode,
			DiscountAmount: decimal.NewFromFloat(d.DiscountAmount),
			CreatedAt:      d.CreatedAt,
		}
		for _, it := range d.Items {
			o.Lines = append(o.Lines, toCartLine(it))
		}
		out = append(out, o)
	}
	return out, nil
}
