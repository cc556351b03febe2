package businessflow

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/amirphl/vitrine/app/dto"
	"github.com/amirphl/vitrine/app/services"
	"github.com/amirphl/vitrine/repository"
	testingutil "github.com/amirphl/vitrine/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampPage(t *testing.T) {
	cases := []struct {
		page          int
		total         int64
		wantPage      int
		wantTotalPage int
	}{
		{page: 1, total: 0, wantPage: 1, wantTotalPage: 1},
		{page: 0, total: 45, wantPage: 1, wantTotalPage: 3},
		{page: 2, total: 45, wantPage: 2, wantTotalPage: 3},
		{page: 99, total: 45, wantPage: 3, wantTotalPage: 3},
		{page: 3, total: 40, wantPage: 2, wantTotalPage: 2},
	}
	for _, tc := range cases {
		page, totalPages := ClampPage(tc.page, tc.total, 20)
		assert.Equal(t, tc.wantPage, page, "page=%d total=%d", tc.page, tc.total)
		assert.Equal(t, tc.wantTotalPage, totalPages, "page=%d total=%d", tc.page, tc.total)
	}
}

func TestBuildContactFilter(t *testing.T) {
	filter := BuildContactFilter(&dto.ListContactsRequest{
		Search:   "  maria ",
		Status:   "unread",
		DateFrom: "2024-03-01",
		DateTo:   "2024-03-31",
	}, time.UTC)

	require.NotNil(t, filter.Search)
	assert.Equal(t, "maria", *filter.Search)
	require.NotNil(t, filter.IsRead)
	assert.False(t, *filter.IsRead)
	require.NotNil(t, filter.CreatedAfter)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *filter.CreatedAfter)
	require.NotNil(t, filter.CreatedBefore)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), *filter.CreatedBefore)

	ignored := BuildContactFilter(&dto.ListContactsRequest{Status: "all", DateFrom: "03/01/2024"}, time.UTC)
	assert.Nil(t, ignored.IsRead)
	assert.Nil(t, ignored.CreatedAfter)
}

func TestContactManagementFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := testingutil.CreateTestContext()
		fixtures := testingutil.NewTestFixtures(testDB)
		contactRepo := repository.NewContactSubmissionRepository(testDB.DB)
		flow := NewContactManagementFlow(
			contactRepo,
			services.NewDiskAttachmentStorage(t.TempDir()),
			services.NewContactExporter(time.UTC),
			nil,
			time.UTC,
		)

		base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		for i := 0; i < 25; i++ {
			_, err := fixtures.CreateTestContact(fmt.Sprintf("Cliente %02d", i), fmt.Sprintf("cliente%02d@example.com", i), base.Add(time.Duration(i)*time.Hour))
			require.NoError(t, err)
		}

		t.Run("ListNewestFirst", func(t *testing.T) {
			resp, err := flow.List(ctx, &dto.ListContactsRequest{Page: 1})
			require.NoError(t, err)
			assert.Equal(t, int64(25), resp.TotalCount)
			assert.Equal(t, 2, resp.TotalPages)
			require.Len(t, resp.Items, 20)
			assert.Equal(t, "Cliente 24", resp.Items[0].Name)
		})

		t.Run("ListClampsPage", func(t *testing.T) {
			resp, err := flow.List(ctx, &dto.ListContactsRequest{Page: 99})
			require.NoError(t, err)
			assert.Equal(t, 2, resp.Page)
			assert.Len(t, resp.Items, 5)
		})

		t.Run("Search", func(t *testing.T) {
			resp, err := flow.List(ctx, &dto.ListContactsRequest{Search: "CLIENTE07@"})
			require.NoError(t, err)
			require.Len(t, resp.Items, 1)
			assert.Equal(t, "Cliente 07", resp.Items[0].Name)
		})

		t.Run("DetailMarksRead", func(t *testing.T) {
			list, err := flow.List(ctx, &dto.ListContactsRequest{Status: "unread"})
			require.NoError(t, err)
			target := list.Items[0]

			detail, err := flow.Detail(ctx, strconv.FormatUint(uint64(target.ID), 10))
			require.NoError(t, err)
			assert.True(t, detail.IsRead)

			again, err := flow.Detail(ctx, target.UUID)
			require.NoError(t, err)
			assert.True(t, again.IsRead)

			unread, err := flow.List(ctx, &dto.ListContactsRequest{Status: "unread"})
			require.NoError(t, err)
			assert.Equal(t, list.TotalCount-1, unread.TotalCount)
		})

		t.Run("DetailNotFound", func(t *testing.T) {
			for _, ref := range []string{"999999", "not-a-ref", "6f1c1c7e-6d0b-4e59-9f55-8d7a4a0f0b11"} {
				_, err := flow.Detail(ctx, ref)
				assert.True(t, IsContactNotFound(err), ref)
			}
		})

		t.Run("UpdateNotes", func(t *testing.T) {
			list, err := flow.List(ctx, &dto.ListContactsRequest{})
			require.NoError(t, err)
			ref := strconv.FormatUint(uint64(list.Items[0].ID), 10)

			updated, err := flow.UpdateNotes(ctx, ref, &dto.UpdateContactNotesRequest{Notes: "ligar amanhã"})
			require.NoError(t, err)
			assert.Equal(t, "ligar amanhã", updated.Notes)

			_, err = flow.UpdateNotes(ctx, "999999", &dto.UpdateContactNotesRequest{Notes: "x"})
			assert.True(t, IsContactNotFound(err))
		})

		t.Run("AttachmentMissing", func(t *testing.T) {
			list, err := flow.List(ctx, &dto.ListContactsRequest{})
			require.NoError(t, err)
			_, err = flow.DownloadAttachment(ctx, list.Items[0].UUID)
			assert.ErrorIs(t, err, ErrAttachmentNotFound)
		})

		t.Run("ExportCSV", func(t *testing.T) {
			file, err := flow.Export(ctx, &dto.ListContactsRequest{Search: "cliente0"}, "CSV")
			require.NoError(t, err)
			assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)
			assert.Regexp(t, `^contatos_\d{8}_\d{6}\.csv$`, file.Filename)

			records, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
			require.NoError(t, err)
			require.Len(t, records, 11)
			assert.Equal(t, "Nome", records[0][0])
			assert.Equal(t, "Cliente 09", records[1][0])
		})

		t.Run("ExportInvalidFormat", func(t *testing.T) {
			_, err := flow.Export(ctx, nil, "docx")
			assert.ErrorIs(t, err, ErrInvalidExportFormat)
		})

		return nil
	})
	require.NoError(t, err)
}
