package common_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"github.com/joseph-ayodele/jobapply/internal/common"
)

func TestValidatorRules(t *testing.T) {
	v := common.NewValidator().
		Field("doc_types", []string{}, common.Required).
		Field("name", "  ", common.Required).
		Field("owner", uuid.Nil, common.Required).
		Field("ids", []string{"a", "b", "c"}, common.MaxItems(2)).
		Field("reason", "héllo", common.MaxLength(4)).
		Field("amount", 0, common.NonZero)
	require.True(t, v.HasErrors())

	err := v.Error()
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))
	assert.Equal(t, codes.InvalidArgument, common.CodeOf(err))
	for _, field := range []string{"doc_types", "name", "owner", "ids", "reason", "amount"} {
		assert.Contains(t, err.Error(), "'"+field+"'")
	}
}

func TestValidatorPasses(t *testing.T) {
	v := common.NewValidator().
		Field("doc_types", []string{"cover_letter"}, common.Required, common.MaxItems(2)).
		Field("reason", "ok", common.MaxLength(4)).
		Field("amount", -3, common.NonZero)
	assert.False(t, v.HasErrors())
	assert.NoError(t, v.Error())
	assert.False(t, common.IsValidation(common.ErrInvalidInput))
}

func TestParseUUID(t *testing.T) {
	id := uuid.New()
	got, err := common.ParseUUID("id", " "+id.String()+" ")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = common.ParseUUID("id", uuid.Nil.String())
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = common.ParseUUID("id", "nope")
	assert.Equal(t, codes.InvalidArgument, common.CodeOf(err))
}
