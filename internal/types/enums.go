package types

// Receive (SMS subscription) status values
const (
	ReceiveYes = "Y"
	ReceiveNo  = "N"
)

// Note status values
const (
	NoteOngoing   = "ongoing"
	NoteCompleted = "completed"
	NoteDeleted   = "deleted"
)

// Manager positions
const (
	PositionAdmin   = "admin"
	PositionManager = "manager"
	PositionDealer  = "dealer"
	PositionViewer  = "viewer"
)

// Sort directions sent to the search endpoint
const (
	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// Sortable user list columns
const (
	SortRealName     = "real_name"
	SortNickname     = "nickname"
	SortMemberType   = "member_type"
	SortCompanyName  = "company_name"
	SortLastModified = "last_modified"
	SortVerifiedDate = "verified_date"
	SortEntryCount   = "entry_count"
	SortSoldCount    = "sold_count"
)

// Widget identifiers
const (
	WidgetUserList     = "user-list"
	WidgetBidBoard     = "bid-board"
	WidgetSMSBroadcast = "sms-broadcast"
	WidgetDiskPanel    = "disk-maintenance"
	WidgetServicePanel = "service-maintenance"
	WidgetNotes        = "notes"
)

// Valid positions for validation
var ValidPositions = []string{
	PositionAdmin, PositionManager, PositionDealer, PositionViewer,
}

// IsValidPosition reports whether p is a known manager position.
func IsValidPosition(p string) bool {
	for _, v := range ValidPositions {
		if v == p {
			return true
		}
	}
	return false
}

// Valid sort columns accepted from clients
var ValidSortFields = []string{
	SortRealName, SortNickname, SortMemberType, SortCompanyName,
	SortLastModified, SortVerifiedDate, SortEntryCount, SortSoldCount,
}
