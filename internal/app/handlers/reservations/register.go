package reservations

import (
	"pousada/internal/app/commands"
	"pousada/internal/app/dto"
	"pousada/internal/app/policies"
	"pousada/internal/app/queries"
	"pousada/internal/app/validation"
)

// Register wires every reservation command and query onto the buses.
func Register(cmdBus *commands.InMemoryBus, queryBus *queries.InMemoryBus, w *Workflow, opts *Options, statements policies.StatementStore, v *validation.Validator) {
	commands.RegisterHandler[CreateReservationCommand, *dto.CreatedReservation](cmdBus, &CreateReservationHandler{Workflow: w}, createReservationKey)
	commands.RegisterHandler[TransitionCommand, *dto.ReservationView](cmdBus, &TransitionHandler{Workflow: w}, TransitionKeys...)
	commands.RegisterHandler[ExtendStayCommand, *dto.ReservationView](cmdBus, &ExtendStayHandler{Workflow: w, Validator: v}, extendStayKey)
	commands.RegisterHandler[ChangeAccommodationCommand, *dto.ReservationView](cmdBus, &ChangeAccommodationHandler{Workflow: w}, changeAccommodationKey)
	commands.RegisterHandler[AddChargeCommand, *dto.ReservationView](cmdBus, &AddChargeHandler{Workflow: w}, addChargeKey)
	commands.RegisterHandler[AddPaymentCommand, *dto.ReservationView](cmdBus, &AddPaymentHandler{Workflow: w}, addPaymentKey)
	commands.RegisterHandler[ExportStatementCommand, *dto.StatementResult](cmdBus, &ExportStatementHandler{Workflow: w, Store: statements}, exportStatementKey)

	queries.RegisterHandler[GetReservationQuery, *dto.ReservationView](queryBus, GetReservationKey, &GetReservationHandler{Workflow: w})
	queries.RegisterHandler[ListOptionsQuery, []dto.OptionView](queryBus, ListOptionsKey, &ListOptionsHandler{Options: opts})
	queries.RegisterHandler[PreviewQuoteQuery, *dto.QuoteView](queryBus, PreviewQuoteKey, &PreviewQuoteHandler{Options: opts})
}
