package roles

import (
	"math/big"
	"strings"

	"ovmscope/internal/errs"
)

// Role is a single OVM privilege bit.
type Role uint64

const (
	Withdrawal     Role = 0x01
	Consolidation  Role = 0x02
	SetBeneficiary Role = 0x04
	RecoverFunds   Role = 0x08
	SetReward      Role = 0x10
	Deposit        Role = 0x20
)

// All is every known role combined. The owner implicitly holds it.
const All = uint64(Withdrawal | Consolidation | SetBeneficiary | RecoverFunds | SetReward | Deposit)

// Known lists roles in bit order.
var Known = []Role{Withdrawal, Consolidation, SetBeneficiary, RecoverFunds, SetReward, Deposit}

var names = map[Role]string{
	Withdrawal:     "WITHDRAWAL_ROLE",
	Consolidation:  "CONSOLIDATION_ROLE",
	SetBeneficiary: "SET_BENEFICIARY_ROLE",
	RecoverFunds:   "RECOVER_FUNDS_ROLE",
	SetReward:      "SET_REWARD_ROLE",
	Deposit:        "DEPOSIT_ROLE",
}

func (r Role) String() string {
	if name, ok := names[r]; ok {
		return name
	}
	return "UNKNOWN_ROLE"
}

// Parse maps a wire name to a Role.
func Parse(name string) (Role, bool) {
	name = strings.TrimSpace(name)
	for role, n := range names {
		if n == name {
			return role, true
		}
	}
	return 0, false
}

// Set is the decoded view of a packed roles value.
type Set struct {
	Flags map[Role]bool
	Raw   *big.Int
}

// Has reports whether the role bit is set.
func (s Set) Has(r Role) bool {
	return s.Flags[r]
}

// Names returns granted role names in bit order.
func (s Set) Names() []string {
	out := make([]string, 0, len(Known))
	for _, r := range Known {
		if s.Flags[r] {
			out = append(out, r.String())
		}
	}
	return out
}

// Decode unpacks raw into a Set. Bits outside Known are kept in Raw only.
func Decode(raw *big.Int) Set {
	if raw == nil {
		raw = new(big.Int)
	}
	set := Set{
		Flags: make(map[Role]bool, len(Known)),
		Raw:   new(big.Int).Set(raw),
	}
	for _, r := range Known {
		bit := new(big.Int).SetUint64(uint64(r))
		set.Flags[r] = new(big.Int).And(raw, bit).Cmp(bit) == 0
	}
	return set
}

// DecodeUint64 is Decode for values that fit a machine word.
func DecodeUint64(raw uint64) Set {
	return Decode(new(big.Int).SetUint64(raw))
}

// Encode ORs together the bits of every recognised name. Unknown names are skipped.
func Encode(roleNames []string) uint64 {
	var packed uint64
	for _, name := range roleNames {
		if r, ok := Parse(name); ok {
			packed |= uint64(r)
		}
	}
	return packed
}

// EncodeRoles packs typed roles.
func EncodeRoles(rs ...Role) uint64 {
	var packed uint64
	for _, r := range rs {
		packed |= uint64(r)
	}
	return packed
}

// ParseStrict converts names to roles and rejects anything unknown.
func ParseStrict(roleNames []string) ([]Role, error) {
	if len(roleNames) == 0 {
		return nil, errs.Validation("at least one role is required")
	}
	out := make([]Role, 0, len(roleNames))
	for _, name := range roleNames {
		r, ok := Parse(name)
		if !ok {
			return nil, errs.Validation("unknown role %q (valid: %s)", name, strings.Join(KnownNames(), ", "))
		}
		out = append(out, r)
	}
	return out, nil
}

// KnownNames returns all wire names in bit order.
func KnownNames() []string {
	out := make([]string, 0, len(Known))
	for _, r := range Known {
		out = append(out, r.String())
	}
	return out
}
