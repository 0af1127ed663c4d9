package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"email",
			"password_hash",
			"first_name",
			"last_name",
			"role",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"email": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 254,
			},

			"password_hash": bson.M{
				"bsonType": "string",
			},

			"first_name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"last_name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"role": bson.M{
				"bsonType": "string",
				"enum": []string{
					"tenant",
					"landlord",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
