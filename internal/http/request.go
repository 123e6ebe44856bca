package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"cablebill/internal/core"
)

// maxBodyBytes caps request bodies; the API only ever receives single
// records.
const maxBodyBytes = 1 << 20

type createCustomerRequest struct {
	Name      string              `json:"name" validate:"required"`
	Phone     string              `json:"phone" validate:"omitempty,max=20"`
	STBNumber string              `json:"stbNumber" validate:"omitempty,max=64"`
	Amount    core.Money          `json:"amount"`
	RenewDate core.Date           `json:"renewDate"`
	Status    core.CustomerStatus `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (req createCustomerRequest) toCustomer() core.Customer {
	return core.Customer{
		Name:      req.Name,
		Phone:     req.Phone,
		STBNumber: req.STBNumber,
		Amount:    req.Amount,
		RenewDate: req.RenewDate,
		Status:    req.Status,
	}
}

// createPaymentRequest takes the amount as a plain float so that quoted
// amounts fail decoding; clients must send a JSON number. The tag bounds
// the raw float; toPayment checks it again once rounded to paise.
type createPaymentRequest struct {
	CustomerID    string             `json:"customerId" validate:"required"`
	Amount        *float64           `json:"amount" validate:"required,gt=0,lte=1000000000000"`
	Method        core.PaymentMethod `json:"method" validate:"omitempty,oneof=cash gpay phonepe bank other"`
	Date          core.Date          `json:"date"`
	TransactionID string             `json:"transactionId" validate:"omitempty,max=64"`
}

// toPayment converts the amount to paise and rejects anything that does
// not survive as a positive amount, such as 0.004.
func (req createPaymentRequest) toPayment() (core.Payment, error) {
	amount, err := core.RupeesChecked(*req.Amount)
	if err != nil {
		return core.Payment{}, err
	}
	if err := amount.Validate(); err != nil {
		return core.Payment{}, err
	}
	return core.Payment{
		CustomerID:    req.CustomerID,
		Amount:        amount,
		Method:        req.Method,
		Date:          req.Date,
		TransactionID: req.TransactionID,
	}, nil
}

type generateInvoiceRequest struct {
	CustomerID string      `json:"customerId"`
	Amount     *core.Money `json:"amount"`
}

type notifyRequest struct {
	Channel string `json:"channel" validate:"required,oneof=sms whatsapp"`
}

var errEmptyBody = errors.New("empty request body")

// decodeJSON reads a single JSON object into dst. An empty body is
// reported as errEmptyBody so callers may treat it as "no options".
func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(body)) == "" {
		return errEmptyBody
	}
	return json.Unmarshal(body, dst)
}

// fieldErrors flattens validator output into field -> tag pairs.
func fieldErrors(err error) map[string]string {
	out := make(map[string]string)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.Field()] = fe.Tag()
		}
	}
	return out
}
