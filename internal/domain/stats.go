package domain

type UserStats struct {
	TotalReservations     int
	PendingReservations   int
	ActiveReservations    int
	CompletedReservations int
}

type AdminStats struct {
	ActiveAssets       int
	PendingRequests    int
	AssetsInPossession int
	CompletedRequests  int
	TotalRequests      int
}
