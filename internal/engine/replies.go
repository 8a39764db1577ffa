package engine

import (
	"fmt"
	"strings"

	"github.com/brightsmile/frontdesk/internal/calendar"
	"github.com/brightsmile/frontdesk/internal/scheduling"
)

// Patient-facing reply texts. Kept in one place so the conversational tone
// stays consistent across the three flows.
const (
	replyApology = "I'm having trouble right now, please try again."

	replyAskName      = "Happy to get you booked in! What's the patient's name?"
	replyAskTreatment = "What treatment do you need? We offer checkups, cleanings, fillings, root canals, extractions, and whitening."
	replyAskUnits     = "How many teeth need a filling?"

	replyNoSlots = "I'm sorry, I couldn't find any open appointments right now. Please check back later or call the office."

	replyBookingDeclined = "No problem, I won't book that. Would another day or time suit you better?"

	replyCalendarTrouble = "I'm sorry, I couldn't reach our calendar just now. Please try again in a moment or contact the office directly."
	replyCommitFailed    = "I'm sorry, something went wrong while booking that appointment. Please try again or contact the office directly."

	replyNoAppointment = "I couldn't find an upcoming appointment under this number. Is there anything else I can help with?"

	replyCancelDeclined = "Okay, your appointment stays as it is."
	replyCancelFailed   = "I'm sorry, I wasn't able to cancel that appointment. Please call the office and our staff will sort it out."

	replyRescheduleAbandoned = "Okay, I'll leave everything as it is."

	replyGoodbye = "Thanks for getting in touch. Have a great day!"

	replyGeneric = "I can help you book, cancel, or reschedule a dental appointment. What would you like to do?"
)

func replyOffer(slot scheduling.Slot) string {
	return fmt.Sprintf("I found an opening on %s. Shall I book it?", slot.Format())
}

func replyBooked(appt calendar.Appointment) string {
	return fmt.Sprintf("All set! Your %s is booked for %s. See you then!",
		appt.Treatment.DisplayName(), appt.Slot().Format())
}

func replySlotTakenNewOffer(slot scheduling.Slot) string {
	return fmt.Sprintf("I'm sorry, that time was just taken. The next opening is %s. Shall I book that instead?", slot.Format())
}

const replySlotTakenNoAlternative = "I'm sorry, that time was just taken and I couldn't find another opening. Please check back later or call the office."

func replyCancelPrompt(appt calendar.Appointment) string {
	return fmt.Sprintf("I found your %s on %s. Do you want me to cancel it?",
		appt.Treatment.DisplayName(), appt.Slot().Format())
}

func replyCancelled(appt calendar.Appointment) string {
	return fmt.Sprintf("Done, your %s on %s has been cancelled.",
		appt.Treatment.DisplayName(), appt.Slot().Format())
}

func replyReschedulePrompt(appt calendar.Appointment) string {
	return fmt.Sprintf("You have a %s on %s. Shall I cancel it and find you a new time?",
		appt.Treatment.DisplayName(), appt.Slot().Format())
}

func replyChoosePrompt(appts []calendar.Appointment) string {
	var sb strings.Builder
	sb.WriteString("You have more than one appointment. Which one would you like to reschedule?\n")
	for i, appt := range appts {
		fmt.Fprintf(&sb, "%d. %s (%s)\n", i+1, appt.Slot().Format(), appt.Treatment.DisplayName())
	}
	sb.WriteString("Reply with a number or the day of the appointment.")
	return sb.String()
}

const replyCancelledNoNewSlot = "Your old appointment is cancelled, but I couldn't find a new opening right now. Please check back later or call the office."
