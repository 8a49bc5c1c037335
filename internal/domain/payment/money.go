package payment

import (
	"math"
	"strings"

	"github.com/UniNest-Housing/service-payment/internal/domain"
)

// subunitFactors maps an ISO currency code to the number of minor units per
// major unit. Processor amounts are always expressed in the minor unit
// (kobo, pesewas, cents).
var subunitFactors = map[string]int64{
	"NGN": 100,
	"GHS": 100,
	"KES": 100,
	"ZAR": 100,
	"USD": 100,
}

// SupportedCurrency reports whether the processor accepts the given code.
func SupportedCurrency(currency string) bool {
	_, ok := subunitFactors[strings.ToUpper(currency)]
	return ok
}

// ToMinorUnits converts a positive amount in major units to the processor's
// minor unit. The conversion is exact integer multiplication; amounts that
// would overflow int64 are rejected.
func ToMinorUnits(amountMajor int64, currency string) (int64, error) {
	factor, ok := subunitFactors[strings.ToUpper(currency)]
	if !ok {
		return 0, domain.NewBadRequestError("unsupported currency: " + currency)
	}
	if amountMajor <= 0 {
		return 0, domain.NewBadRequestError("amount must be positive")
	}
	if amountMajor > math.MaxInt64/factor {
		return 0, domain.NewBadRequestError("amount exceeds the maximum chargeable value")
	}
	return amountMajor * factor, nil
}
