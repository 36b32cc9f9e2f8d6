package outbox

const checkInCreatedSchema = `{
  "type": "object",
  "title": "CheckInCreated",
  "properties": {
    "checkin_id": {"type": "string"},
    "user_id": {"type": "string"},
    "gym_id": {"type": "string"},
    "created_at": {"type": "string", "format": "date-time"}
  },
  "required": ["checkin_id", "user_id", "gym_id", "created_at"],
  "additionalProperties": false
}`

const checkInValidatedSchema = `{
  "type": "object",
  "title": "CheckInValidated",
  "properties": {
    "checkin_id": {"type": "string"},
    "user_id": {"type": "string"},
    "gym_id": {"type": "string"},
    "validated_at": {"type": "string", "format": "date-time"}
  },
  "required": ["checkin_id", "user_id", "gym_id", "validated_at"],
  "additionalProperties": false
}`

const gymCreatedSchema = `{
  "type": "object",
  "title": "GymCreated",
  "properties": {
    "gym_id": {"type": "string"},
    "title": {"type": "string"},
    "latitude": {"type": "string"},
    "longitude": {"type": "string"},
    "created_at": {"type": "string", "format": "date-time"}
  },
  "required": ["gym_id", "title", "latitude", "longitude", "created_at"],
  "additionalProperties": false
}`
