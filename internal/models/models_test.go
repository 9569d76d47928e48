package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBaseModelBeforeCreateGeneratesID(t *testing.T) {
	var base BaseModel
	require.NoError(t, base.BeforeCreate(nil))
	require.NotEmpty(t, base.ID)

	kept := BaseModel{ID: "fixed"}
	require.NoError(t, kept.BeforeCreate(nil))
	require.Equal(t, "fixed", kept.ID)
}

func TestParseTagsTrimsAndDropsEmpties(t *testing.T) {
	tags := ParseTags("Oncology, Immunology")
	require.Equal(t, TagList{"Oncology", "Immunology"}, tags)
	require.Len(t, tags, 2)

	require.Equal(t, TagList{"a", "b"}, ParseTags(" a ,, b ,"))
	require.Empty(t, ParseTags(""))
	require.Empty(t, ParseTags(" , ,"))
}

func TestNormalizeTagsDeduplicatesCaseInsensitively(t *testing.T) {
	tags := NormalizeTags([]string{"Genomics", "genomics ", "AI", "GENOMICS", "ai"})
	require.Equal(t, TagList{"Genomics", "AI"}, tags)
}

func TestTagListStorageRoundTrip(t *testing.T) {
	value, err := TagList{"Oncology", " Immunology "}.Value()
	require.NoError(t, err)
	require.Equal(t, "Oncology, Immunology", value)

	var scanned TagList
	require.NoError(t, scanned.Scan([]byte("Oncology, Immunology")))
	require.Equal(t, TagList{"Oncology", "Immunology"}, scanned)

	empty, err := TagList{}.Value()
	require.NoError(t, err)
	require.Nil(t, empty)

	require.NoError(t, scanned.Scan(nil))
	require.Nil(t, scanned)
	require.Error(t, scanned.Scan(42))
}

func TestTagListJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		Tags TagList `json:"tags"`
	}{})
	require.NoError(t, err)
	require.JSONEq(t, `{"tags":[]}`, string(out))

	var fromArray TagList
	require.NoError(t, json.Unmarshal([]byte(`["x"," y ","X"]`), &fromArray))
	require.Equal(t, TagList{"x", "y"}, fromArray)

	var fromString TagList
	require.NoError(t, json.Unmarshal([]byte(`"Oncology, Immunology"`), &fromString))
	require.Equal(t, TagList{"Oncology", "Immunology"}, fromString)

	var bad TagList
	require.Error(t, json.Unmarshal([]byte(`12`), &bad))
}

func TestConnectionPairKeyIsSymmetric(t *testing.T) {
	require.Equal(t, ConnectionPairKey("a", "b"), ConnectionPairKey("b", "a"))
	require.Equal(t, "a:b", ConnectionPairKey("b", "a"))

	conn := Connection{SenderID: "a", ReceiverID: "b"}
	require.True(t, conn.Involves("b"))
	require.False(t, conn.Involves("c"))
	require.Equal(t, "a", conn.Counterpart("b"))
	require.Equal(t, "b", conn.Counterpart("a"))
}

func TestInviteTokenState(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	used := now.Add(-time.Hour)

	cases := []struct {
		name  string
		token InviteToken
		want  InviteState
	}{
		{"active", InviteToken{IsActive: true, ExpiresAt: now.Add(time.Hour)}, InviteStateActive},
		{"expired at boundary", InviteToken{IsActive: true, ExpiresAt: now}, InviteStateExpired},
		{"inactive", InviteToken{IsActive: false, ExpiresAt: now.Add(time.Hour)}, InviteStateInactive},
		{"used", InviteToken{IsActive: false, ExpiresAt: now.Add(-time.Hour), UsedAt: &used}, InviteStateUsed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.token.State(now))
			require.Equal(t, tc.want == InviteStateActive, tc.token.Usable(now))
		})
	}
}

func TestParseEnums(t *testing.T) {
	kind, ok := ParseUserType(" Laboratory ")
	require.True(t, ok)
	require.Equal(t, UserTypeLaboratory, kind)
	_, ok = ParseUserType("investor")
	require.False(t, ok)

	status, ok := ParseApprovalStatus("APPROVED")
	require.True(t, ok)
	require.Equal(t, ApprovalApproved, status)

	pubType, ok := ParsePublicationType("")
	require.True(t, ok)
	require.Equal(t, PublicationPaper, pubType)
	_, ok = ParsePublicationType("blog")
	require.False(t, ok)
}

func TestUserRoles(t *testing.T) {
	user := User{Roles: []Role{{BaseModel: BaseModel{ID: RoleUser}}, {BaseModel: BaseModel{ID: RoleAdmin}}}}
	require.True(t, user.HasRole(RoleAdmin))
	require.Equal(t, []string{RoleUser, RoleAdmin}, user.RoleIDs())
	require.True(t, ValidRole("admin"))
	require.False(t, ValidRole("owner"))
}
