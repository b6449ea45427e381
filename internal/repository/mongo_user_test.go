package repository

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"postboard/internal/model"
)

func TestDuplicateUserError(t *testing.T) {
	dupKey := func(index string) error {
		return mongo.WriteException{WriteErrors: []mongo.WriteError{{
			Code:    11000,
			Message: "E11000 duplicate key error collection: postboard.users index: " + index + " dup key: { x: 1 }",
		}}}
	}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"username index", dupKey(userNameIndex), model.ErrUsernameTaken},
		{"email index", dupKey(emailIndex), model.ErrEmailTaken},
		{"wrapped username index", fmt.Errorf("insert: %w", dupKey(userNameIndex)), model.ErrUsernameTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := duplicateUserError(tt.err); !errors.Is(got, tt.want) {
				t.Errorf("duplicateUserError = %v, want %v", got, tt.want)
			}
		})
	}
}
