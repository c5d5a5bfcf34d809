package notification

import "fmt"

// SavedSearchMatchKey identifies the one match notification allowed per
// (saved search, listing) pair.
func SavedSearchMatchKey(savedSearchID, listingID int64) string {
	return fmt.Sprintf("%s:%d:%d", KindSavedSearchMatch, savedSearchID, listingID)
}

// ListingLifecycleKey identifies the one expiry notification of a given
// kind allowed per (owner, listing) pair.
func ListingLifecycleKey(kind Kind, ownerID, listingID int64) string {
	return fmt.Sprintf("%s:%d:%d", kind, ownerID, listingID)
}

// AppointmentReminderKey identifies the single reminder for an appointment.
func AppointmentReminderKey(appointmentID int64) string {
	return fmt.Sprintf("%s:%d", KindAppointmentReminder, appointmentID)
}
