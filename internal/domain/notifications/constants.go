package notifications

const (
	msgLeaveApproved     = "Your %s request %s (%s to %s) has been approved."
	msgLeaveRejected     = "Your %s request %s (%s to %s) has been rejected."
	msgRejectionReason   = " Reason: %s"
	msgHolidayAnnounced  = "Official holiday tomorrow: %s (%s to %s)."
	subjectLeaveDecision = "Leave request update"
	subjectHoliday       = "Official holiday"
	dateLayout           = "2006-01-02"
)
