package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"ringside/internal/delivery"
	"ringside/internal/domain"
)

// CheckoutRequest is the form submitted at checkout.
type CheckoutRequest struct {
	PersonalInfo     domain.PersonalInfo  `json:"personalInfo"`
	ShippingMethodID string               `json:"shippingMethodId"`
	Address          *domain.Address      `json:"address,omitempty"`
	DeliveryPointID  string               `json:"deliveryPointId,omitempty"`
	PaymentMethod    domain.PaymentMethod `json:"paymentMethod"`
	Card             *CardDetails         `json:"card,omitempty"`
}

// CardDetails are only inspected when PaymentMethod is card.
type CardDetails struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"` // MM/YY or MM/YYYY
	CVV    string `json:"cvv"`
	Name   string `json:"name"`
}

var (
	phonePattern  = regexp.MustCompile(`^[0-9+\-() ]{7,20}$`)
	digitsPattern = regexp.MustCompile(`^[0-9]{13,19}$`)
	cvvPattern    = regexp.MustCompile(`^[0-9]{3,4}$`)
	expiryPattern = regexp.MustCompile(`^(\d{2})/(\d{2}|\d{4})$`)
)

// Validator checks checkout forms.
type Validator struct {
	v         *validator.Validate
	testCards map[string]struct{}
	now       func() time.Time
}

func NewValidator(testCards []string) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	cards := make(map[string]struct{}, len(testCards))
	for _, c := range testCards {
		cards[cardDigits(c)] = struct{}{}
	}
	return &Validator{v: v, testCards: cards, now: time.Now}
}

// Validate checks the whole form and resolves the shipping method and
// delivery info. Field problems come back as *ValidationError.
func (val *Validator) Validate(req CheckoutRequest) (domain.ShippingMethod, domain.DeliveryInfo, error) {
	fields := map[string]string{}
	val.structFields("personalInfo", req.PersonalInfo, fields)

	var info domain.DeliveryInfo
	method, ok := delivery.ShippingMethod(req.ShippingMethodID)
	if !ok {
		fields["shippingMethodId"] = "unknown shipping method"
	} else {
		switch {
		case method.RequiresAddress:
			addr := domain.Address{}
			if req.Address != nil {
				addr = *req.Address
			}
			if val.structFields("address", addr, fields) {
				info = domain.DeliveryInfo{Kind: domain.DeliveryAddress, Address: &addr}
			}
		case method.IsTest:
			info = domain.DeliveryInfo{Kind: domain.DeliveryTest}
		default:
			point, ok := delivery.DeliveryPoint(req.DeliveryPointID)
			if !ok {
				fields["deliveryPointId"] = "select a delivery point"
			} else {
				info = domain.DeliveryInfo{Kind: domain.DeliveryPickup, Point: &point}
			}
		}
	}

	switch req.PaymentMethod {
	case domain.PaymentCard:
		if req.Card == nil {
			fields["card"] = "is required"
		} else {
			for k, msg := range val.CardErrors(*req.Card) {
				fields[k] = msg
			}
		}
	case domain.PaymentCash, domain.PaymentTest:
	default:
		fields["paymentMethod"] = "unsupported payment method"
	}

	if len(fields) > 0 {
		return domain.ShippingMethod{}, domain.DeliveryInfo{}, &ValidationError{Fields: fields}
	}
	return method, info, nil
}

// structFields runs tag validation on s and records failures under prefix.
// It reports whether s was valid.
func (val *Validator) structFields(prefix string, s any, fields map[string]string) bool {
	err := val.v.Struct(s)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields[prefix] = err.Error()
		return false
	}
	for _, fe := range verrs {
		fields[prefix+"."+fe.Field()] = fieldMessage(fe)
	}
	return false
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "phone":
		return "must be a valid phone number"
	default:
		return "is invalid"
	}
}

// CardErrors returns card field problems keyed as card.<field>. Numbers on
// the test-card list pass without further checks.
func (val *Validator) CardErrors(c CardDetails) map[string]string {
	fields := map[string]string{}
	number := cardDigits(c.Number)
	if _, ok := val.testCards[number]; ok {
		return fields
	}

	if !digitsPattern.MatchString(number) || !Luhn(number) {
		fields["card.number"] = "invalid card number"
	}
	if msg := val.expiryProblem(c.Expiry); msg != "" {
		fields["card.expiry"] = msg
	}
	if !cvvPattern.MatchString(strings.TrimSpace(c.CVV)) {
		fields["card.cvv"] = "must be 3 or 4 digits"
	}
	if utf8.RuneCountInString(strings.TrimSpace(c.Name)) < 3 {
		fields["card.name"] = "must be at least 3 characters"
	}
	return fields
}

func (val *Validator) expiryProblem(expiry string) string {
	m := expiryPattern.FindStringSubmatch(strings.TrimSpace(expiry))
	if m == nil {
		return "must be MM/YY"
	}
	month, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return "must be MM/YY"
	}
	if len(m[2]) == 2 {
		year += 2000
	}
	now := val.now()
	if year < now.Year() || (year == now.Year() && month < int(now.Month())) {
		return "card has expired"
	}
	return ""
}

// Luhn reports whether the digit string passes the mod-10 checksum.
func Luhn(number string) bool {
	if number == "" {
		return false
	}
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func cardDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
