package document

import "go.mongodb.org/mongo-driver/bson"

// Document is one stored record as read from MongoDB, in stored field order.
// Exports never mutate documents.
type Document = bson.D
