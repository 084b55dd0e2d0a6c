package handlers

// HandlerBundle aggregates all request handlers for route registration.
type HandlerBundle struct {
	Booking  *BookingHandler
	Checkout *CheckoutHandler
	VIP      *VIPHandler
	Admin    *AdminHandler
}
