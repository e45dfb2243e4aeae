package orm

import (
	"github.com/crawltoll/vault"
)

// queryPrefix returns all models with keys that begin with a given prefix.
func queryPrefix(db vault.ReadOnlyKVStore, prefix []byte) ([]vault.Model, error) {
	itr, err := db.Iterator(prefixRange(prefix))
	if err != nil {
		return nil, err
	}
	defer itr.Close()

	var res []vault.Model
	for itr.Valid() {
		mod := vault.Model{
			Key:   itr.Key(),
			Value: itr.Value(),
		}
		res = append(res, mod)
		if err := itr.Next(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// prefixRange turns a prefix into (start, end) to create
// and iterator over the domain of the prefix.
//
// In case of [], we return (nil, nil), which covers the whole domain.
// In case of [1], we return ([1], [2]).
// In case of [1, 255], we return ([1, 255], [2]).
// In case of [255, 255, 255], we return ([255, 255, 255], nil),
// there is no end other than the end of the domain.
func prefixRange(prefix []byte) ([]byte, []byte) {
	if len(prefix) == 0 {
		return nil, nil
	}

	// copy the prefix and update last byte
	end := make([]byte, len(prefix))
	copy(end, prefix)
	l := len(end) - 1
	end[l]++

	// wait, what if that overflowed the last byte? then we need to carry
	for end[l] == 0 && l > 0 {
		l--
		end[l]++
	}

	// okay, funny guy, you gave us FFF, no end to this range...
	if l == 0 && end[0] == 0 {
		end = nil
	}
	return prefix, end
}
