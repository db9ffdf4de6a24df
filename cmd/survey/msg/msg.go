package msg

import "fmt"

const (
	StatusAdded     = "added"
	StatusNotFound  = "not_found"
	StatusFailed    = "failed"
	StatusEmpty     = "empty"
	StatusReset     = "reset"
	StatusForbidden = "forbidden"
)

const (
	MsgTitle           = "📍 あなたはどこから来ましたか？（関東マップ）"
	MsgMapHeading      = "🗾 みんなの出発地マップ"
	MsgPlaceLabel      = "都道府県・市区町村・駅名など（例：埼玉県さいたま市、渋谷駅）"
	MsgSubmit          = "地図に追加する"
	MsgAdded           = "✅ %s を地図に追加しました！"
	MsgNotFound        = "場所が見つかりませんでした。別の表記（駅名→市区町村など）でもお試しください。"
	MsgGeocodingFailed = "ジオコーディングに失敗しました（外部サービス未到達/制限の可能性）。"
	MsgEmptyPlace      = "場所を入力してください。"
	MsgReset           = "🧹 データをリセットしました。"
	MsgForbidden       = "管理者パスワードが違います。"
	MsgLoadFailed      = "地図データを読み込めませんでした。"
	MsgAdminHeading    = "🔒 管理者設定（データリセット）"
	MsgAdminPassword   = "管理者パスワード"
	MsgResetButton     = "データをリセット"
)

type Flash struct {
	Level string
	Text  string
}

// ForStatus maps the status query parameter set after a redirect to the
// message shown above the map. Unknown statuses show nothing.
func ForStatus(status, place string) *Flash {
	switch status {
	case StatusAdded:
		return &Flash{Level: "success", Text: fmt.Sprintf(MsgAdded, place)}
	case StatusNotFound:
		return &Flash{Level: "warning", Text: MsgNotFound}
	case StatusFailed:
		return &Flash{Level: "error", Text: MsgGeocodingFailed}
	case StatusEmpty:
		return &Flash{Level: "warning", Text: MsgEmptyPlace}
	case StatusReset:
		return &Flash{Level: "warning", Text: MsgReset}
	case StatusForbidden:
		return &Flash{Level: "error", Text: MsgForbidden}
	default:
		return nil
	}
}
