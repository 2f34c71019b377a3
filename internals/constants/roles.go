package constants

// ==========================
// ✅ Role Names
// ==========================
const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleTreasurer = "treasurer"
	RoleOwner     = "owner"
)

// ==========================
// ✅ Grouped Role Slices
// ==========================
var (
	AllRoles = []string{
		RoleUser,
		RoleAdmin,
		RoleTreasurer,
		RoleOwner,
	}

	// FinanceRoles may manage the fee catalog and read gateway events.
	FinanceRoles = []string{
		RoleAdmin,
		RoleTreasurer,
	}

	AdminOnly = []string{
		RoleAdmin,
	}
)
