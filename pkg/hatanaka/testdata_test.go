package hatanaka

// Test data shared by the tests.

const obsRnx3 = `     3.04           OBSERVATION DATA    M                   RINEX VERSION / TYPE
sbf2rin-13.4.3                          20181106 200225 UTC PGM / RUN BY / DATE
BRUX                                                        MARKER NAME
G    4 C1C L1C D1C S1C                                      SYS / # / OBS TYPES
E    2 C1C L1C                                              SYS / # / OBS TYPES
R    3 C1C L1C S1C                                          SYS / # / OBS TYPES
    30.000                                                  INTERVAL
  2018    11     6    19     0    0.0000000     GPS         TIME OF FIRST OBS
                                                            END OF HEADER
> 2018 11 06 19 00  0.0000000  0  3
E11  25003001.123 8 131392201.45617
G05  23619095.450 7 124121236.139 7     -1234.567          43.750
R03  21571402.987 6 115286745.231 6        41.000
> 2018 11 06 19 00 30.0000000  0  3       0.000123456789
E11  25003101.223 8 131392726.956 7
G05  23619195.550 7 124121761.63917                        43.500
R03                 115286903.411 6
>                              4  2
NEW ANTENNA                                                 COMMENT
        0.5000        0.0000        0.0000                  ANTENNA: DELTA H/E/N
`

const crxRnx3 = `3.0                 COMPACT RINEX FORMAT                    CRINEX VERS   / TYPE
gocrinex                                18-Oct-26 10:00     CRINEX PROG / DATE
     3.04           OBSERVATION DATA    M                   RINEX VERSION / TYPE
sbf2rin-13.4.3                          20181106 200225 UTC PGM / RUN BY / DATE
BRUX                                                        MARKER NAME
G    4 C1C L1C D1C S1C                                      SYS / # / OBS TYPES
E    2 C1C L1C                                              SYS / # / OBS TYPES
R    3 C1C L1C S1C                                          SYS / # / OBS TYPES
    30.000                                                  INTERVAL
  2018    11     6    19     0    0.0000000     GPS         TIME OF FIRST OBS
                                                            END OF HEADER
> 2018 11 06 19 00  0.0000000  0  3      E11G05R03

3&25003001123 3&131392201456  817
3&23619095450 3&124121236139 3&-1234567 3&43750  7 7
3&21571402987 3&115286745231 3&41000  6 6
                   3
0.000123456789
100100 525500   &
100100 525500  -250   1
 158180   &
  &&&& && && && && &&&&&&&&&&  4  2

NEW ANTENNA                                                 COMMENT
        0.5000        0.0000        0.0000                  ANTENNA: DELTA H/E/N
`

const obsRnx2 = `     2.11           OBSERVATION DATA    M (MIXED)           RINEX VERSION / TYPE
teqc  2019Feb25     IGN-RGP             20200603 08:03:25UTCPGM / RUN BY / DATE
BRST                                                        MARKER NAME
     6    L1    L2    C1    P2    S1    S2                  # / TYPES OF OBSERV
    30.0000                                                 INTERVAL
                                                            END OF HEADER
 20  6  3  7  0  0.0000000  0 13G01G02G03G05G07G08G10G13G14G15G17G19-0.000012345
                                R02
 120000000.000 7  93500000.000 5  22000000.000    22000005.000          45.000
        38.000
 120001000.123 7  93500777.456 5  22000011.111    22000016.222          45.000
        39.000
 120002000.246 7  93501554.912 5  22000022.222    22000027.444          45.000
        40.000
 120003000.369 7  93502332.368 5  22000033.333                          45.000
        41.000
 120004000.492 7  93503109.824 5  22000044.444    22000049.888          45.000
        42.000
 120005000.615 7  93503887.280 5  22000055.555    22000061.110          45.000
        43.000
 120006000.738 7  93504664.736 5  22000066.666    22000072.332          45.000
        44.000
 120007000.861 7  93505442.192 5  22000077.777    22000083.554          45.000
        45.000
 120008000.984 7  93506219.648 5  22000088.888    22000094.776          45.000
        46.000
 120009001.107 7  93506997.104 5  22000099.999    22000105.998          45.000
        47.000
 120010001.230 7  93507774.560 5  22000111.110    22000117.220          45.000
        48.000
 120011001.353 7  93508552.016 5  22000122.221    22000128.442          45.000
        49.000
 120012001.476 7  93509329.472 5  22000133.332    22000139.664          45.000
        50.000
 20  6  3  7  0 30.0000000  4  1
SITE MOVED                                                  COMMENT
`

const crxRnx2 = `1.0                 COMPACT RINEX FORMAT                    CRINEX VERS   / TYPE
gocrinex                                18-Oct-26 10:00     CRINEX PROG / DATE
     2.11           OBSERVATION DATA    M (MIXED)           RINEX VERSION / TYPE
teqc  2019Feb25     IGN-RGP             20200603 08:03:25UTCPGM / RUN BY / DATE
BRST                                                        MARKER NAME
     6    L1    L2    C1    P2    S1    S2                  # / TYPES OF OBSERV
    30.0000                                                 INTERVAL
                                                            END OF HEADER
&20 06 03 07 00  0.0000000  0 13G01G02G03G05G07G08G10G13G14G15G17G19R02
-0.000012345
3&120000000000 3&93500000000 3&22000000000 3&22000005000 3&45000 3&38000  7 5
3&120001000123 3&93500777456 3&22000011111 3&22000016222 3&45000 3&39000  7 5
3&120002000246 3&93501554912 3&22000022222 3&22000027444 3&45000 3&40000  7 5
3&120003000369 3&93502332368 3&22000033333  3&45000 3&41000  7 5
3&120004000492 3&93503109824 3&22000044444 3&22000049888 3&45000 3&42000  7 5
3&120005000615 3&93503887280 3&22000055555 3&22000061110 3&45000 3&43000  7 5
3&120006000738 3&93504664736 3&22000066666 3&22000072332 3&45000 3&44000  7 5
3&120007000861 3&93505442192 3&22000077777 3&22000083554 3&45000 3&45000  7 5
3&120008000984 3&93506219648 3&22000088888 3&22000094776 3&45000 3&46000  7 5
3&120009001107 3&93506997104 3&22000099999 3&22000105998 3&45000 3&47000  7 5
3&120010001230 3&93507774560 3&22000111110 3&22000117220 3&45000 3&48000  7 5
3&120011001353 3&93508552016 3&22000122221 3&22000128442 3&45000 3&49000  7 5
3&120012001476 3&93509329472 3&22000133332 3&22000139664 3&45000 3&50000  7 5
                3           4 &1

SITE MOVED                                                  COMMENT
`
