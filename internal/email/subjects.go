package email

const (
	subjectBookingReceived = "We received your booking request"
	subjectAdminReminder   = "Booking request awaiting review"
	subjectCustomerDelay   = "Your booking request is still being reviewed"
	subjectBookingApproved = "Your booking is confirmed"
	subjectBookingRejected = "Update on your booking request"
)
