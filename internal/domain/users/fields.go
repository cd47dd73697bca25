package users

import "leavemgmt/internal/domain/auth"

// FilterFields hides contact and balance data from non-admins looking at
// someone else's record.
func FilterFields(u *User, viewer auth.UserContext) {
	if viewer.IsAdmin() || viewer.UserID == u.ID {
		return
	}
	u.Phone = ""
	u.Email = ""
	u.LeaveBalances = nil
}

func FilterAll(list []User, viewer auth.UserContext) {
	for i := range list {
		FilterFields(&list[i], viewer)
	}
}
