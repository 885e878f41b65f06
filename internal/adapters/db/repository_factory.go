package db

// RepositoryFactory creates repository instances sharing one connection
type RepositoryFactory struct {
	conn *Connection
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(conn *Connection) *RepositoryFactory {
	return &RepositoryFactory{conn: conn}
}

// GetAuctionRepository returns the auction repository
func (f *RepositoryFactory) GetAuctionRepository() *AuctionRepository {
	return NewAuctionRepository(f.conn)
}

// GetBidRepository returns the bid repository
func (f *RepositoryFactory) GetBidRepository() *BidRepository {
	return NewBidRepository(f.conn)
}

// GetRequestRepository returns the buyer request repository
func (f *RepositoryFactory) GetRequestRepository() *RequestRepository {
	return NewRequestRepository(f.conn)
}

// GetOfferRepository returns the seller offer repository
func (f *RepositoryFactory) GetOfferRepository() *OfferRepository {
	return NewOfferRepository(f.conn)
}

// GetSettlementRepository returns the settlement outbox repository
func (f *RepositoryFactory) GetSettlementRepository() *SettlementRepository {
	return NewSettlementRepository(f.conn)
}
