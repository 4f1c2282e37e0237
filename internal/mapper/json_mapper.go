package mapper

import (
	"encoding/json"

	"gorm.io/datatypes"
)

func toJSON(m map[string]interface{}) datatypes.JSON {
	if len(m) == 0 {
		return datatypes.JSON("{}")
	}
	b, err := json.Marshal(m)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(b)
}

func fromJSON(j datatypes.JSON) map[string]interface{} {
	out := map[string]interface{}{}
	if len(j) == 0 {
		return out
	}
	_ = json.Unmarshal(j, &out)
	return out
}
