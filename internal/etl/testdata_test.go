// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package etl

// sampleCSV mirrors the public data layout: five ID columns followed by
// 30-minute slot columns starting at 05:30 and wrapping past midnight.
const sampleCSV = `연번,요일구분,호선,역번호,출발역,상하구분,5시30분,6시00분,23시30분,00시00분,00시30분
1,평일,2호선,239,홍대입구,내선, 12.3 ,45.1,80.0,0,
2,평일,1호선,150,서울역,상선,10,abc,55.5,3.2,0.0
3,토요일,1호선,150,서울역,상선,8.1,20,101.5,,1.0
`
