package dynamo

// DynamoDB attribute names used in key and filter expressions across repos.
const (
	fieldEventID   = "event_id"
	fieldEventDate = "event_date"
	fieldUserID    = "user_id"
	fieldDistricts = "districts"
)
