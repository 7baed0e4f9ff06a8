package checkout

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/yashturmbekar/atyourdoorstep-sub001/orders-service/internal/domain"
)

var (
	phonePattern   = regexp.MustCompile(`^\+?[0-9 ()\-.]+$`)
	pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)
)

const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

// ValidateCustomer checks every field and reports all failures at once.
func ValidateCustomer(c domain.CustomerInfo) error {
	var v domain.ValidationError

	if strings.TrimSpace(c.Name) == "" {
		v.Add("name", "name is required")
	}

	switch phone := strings.TrimSpace(c.Phone); {
	case phone == "":
		v.Add("phone", "phone is required")
	case !validPhone(phone):
		v.Add("phone", "enter a valid mobile number")
	}

	if email := strings.TrimSpace(c.Email); email != "" && !validEmail(email) {
		v.Add("email", "enter a valid email address")
	}

	if strings.TrimSpace(c.Address) == "" {
		v.Add("address", "address is required")
	}

	if strings.TrimSpace(c.City) == "" {
		v.Add("city", "city is required")
	}

	switch pincode := strings.TrimSpace(c.Pincode); {
	case pincode == "":
		v.Add("pincode", "pincode is required")
	case !pincodePattern.MatchString(pincode):
		v.Add("pincode", "pincode must be 6 digits")
	}

	return v.Err()
}

func validPhone(phone string) bool {
	if !phonePattern.MatchString(phone) {
		return false
	}
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= minPhoneDigits && digits <= maxPhoneDigits
}

// validEmail accepts a bare addr-spec with a dotted domain; display names are rejected.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && strings.Contains(email[at+1:], ".")
}
